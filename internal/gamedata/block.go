package gamedata

// Block is a block type as described by minecraft-data's blocks.json, trimmed
// to the fields world generation and lighting read.
type Block struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	BoundingBox string      `json:"boundingBox"`
	Transparent bool        `json:"transparent"`
	EmitLight   int         `json:"emitLight"`
	FilterLight int         `json:"filterLight"`
	Variations  []Variation `json:"variations,omitempty"`
}

type Variation struct {
	Metadata    int    `json:"metadata"`
	DisplayName string `json:"displayName"`
}

// StateID packs a block ID and metadata into the 1.8 block state layout.
func StateID(id, meta int) int32 {
	return int32(id<<4 | meta&0xF)
}

// SplitState unpacks a block state into its block ID and metadata.
func SplitState(state int32) (id, meta int) {
	return int(state >> 4), int(state & 0xF)
}
