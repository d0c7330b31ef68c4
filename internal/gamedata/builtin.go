package gamedata

// Builtin is the name of the block table compiled into the binary. It covers
// the 1.8 blocks the generators place and the common light sources.
const Builtin = "builtin-1.8"

func init() {
	Register(Builtin, func() *Blocks { return NewBlocks(builtinBlocks, builtinShapes) })
}

var builtinBlocks = []Block{
	{ID: 0, Name: "air", DisplayName: "Air", BoundingBox: "empty", Transparent: true},
	{ID: 1, Name: "stone", DisplayName: "Stone", BoundingBox: "block", FilterLight: 15},
	{ID: 2, Name: "grass", DisplayName: "Grass Block", BoundingBox: "block", FilterLight: 15},
	{ID: 3, Name: "dirt", DisplayName: "Dirt", BoundingBox: "block", FilterLight: 15},
	{ID: 4, Name: "cobblestone", DisplayName: "Cobblestone", BoundingBox: "block", FilterLight: 15},
	{ID: 5, Name: "planks", DisplayName: "Wood Planks", BoundingBox: "block", FilterLight: 15},
	{ID: 7, Name: "bedrock", DisplayName: "Bedrock", BoundingBox: "block", FilterLight: 15},
	{ID: 8, Name: "flowing_water", DisplayName: "Water", BoundingBox: "empty", Transparent: true, FilterLight: 2},
	{ID: 9, Name: "water", DisplayName: "Stationary Water", BoundingBox: "empty", Transparent: true, FilterLight: 2},
	{ID: 10, Name: "flowing_lava", DisplayName: "Lava", BoundingBox: "empty", Transparent: true, EmitLight: 15},
	{ID: 11, Name: "lava", DisplayName: "Stationary Lava", BoundingBox: "empty", Transparent: true, EmitLight: 15},
	{ID: 12, Name: "sand", DisplayName: "Sand", BoundingBox: "block", FilterLight: 15},
	{ID: 13, Name: "gravel", DisplayName: "Gravel", BoundingBox: "block", FilterLight: 15},
	{ID: 17, Name: "log", DisplayName: "Wood", BoundingBox: "block", FilterLight: 15},
	{ID: 18, Name: "leaves", DisplayName: "Leaves", BoundingBox: "block", Transparent: true, FilterLight: 1},
	{ID: 20, Name: "glass", DisplayName: "Glass", BoundingBox: "block", Transparent: true},
	{ID: 44, Name: "stone_slab", DisplayName: "Stone Slab", BoundingBox: "block", Transparent: true},
	{ID: 50, Name: "torch", DisplayName: "Torch", BoundingBox: "empty", Transparent: true, EmitLight: 14},
	{ID: 53, Name: "oak_stairs", DisplayName: "Oak Wood Stairs", BoundingBox: "block", Transparent: true},
	{ID: 76, Name: "redstone_torch", DisplayName: "Redstone Torch", BoundingBox: "empty", Transparent: true, EmitLight: 7},
	{ID: 78, Name: "snow_layer", DisplayName: "Snow", BoundingBox: "block", Transparent: true},
	{ID: 79, Name: "ice", DisplayName: "Ice", BoundingBox: "block", Transparent: true, FilterLight: 3},
	{ID: 80, Name: "snow", DisplayName: "Snow", BoundingBox: "block", FilterLight: 15},
	{ID: 87, Name: "netherrack", DisplayName: "Netherrack", BoundingBox: "block", FilterLight: 15},
	{ID: 89, Name: "glowstone", DisplayName: "Glowstone", BoundingBox: "block", FilterLight: 15, EmitLight: 15},
	{ID: 91, Name: "lit_pumpkin", DisplayName: "Jack o'Lantern", BoundingBox: "block", FilterLight: 15, EmitLight: 15},
	{ID: 95, Name: "stained_glass", DisplayName: "Stained Glass", BoundingBox: "block", Transparent: true},
	{ID: 124, Name: "lit_redstone_lamp", DisplayName: "Redstone Lamp", BoundingBox: "block", FilterLight: 15, EmitLight: 15},
	{ID: 169, Name: "sea_lantern", DisplayName: "Sea Lantern", BoundingBox: "block", FilterLight: 15, EmitLight: 15},
}

const (
	shapeEmpty = iota
	shapeFull
	shapeBottomSlab
	shapeTopSlab
	shapeSnowLayer
	shapeStairsEast
	shapeStairsWest
	shapeStairsSouth
	shapeStairsNorth
)

var builtinShapes = &CollisionShapes{
	Blocks: map[string]ShapeIDs{
		"air":        {shapeEmpty},
		"stone":      {shapeFull},
		"glass":      {shapeFull},
		"leaves":     {shapeFull},
		"torch":      {shapeEmpty},
		"snow_layer": {shapeSnowLayer},
		"stone_slab": {
			shapeBottomSlab, shapeBottomSlab, shapeBottomSlab, shapeBottomSlab,
			shapeBottomSlab, shapeBottomSlab, shapeBottomSlab, shapeBottomSlab,
			shapeTopSlab, shapeTopSlab, shapeTopSlab, shapeTopSlab,
			shapeTopSlab, shapeTopSlab, shapeTopSlab, shapeTopSlab,
		},
		"oak_stairs": {shapeStairsEast, shapeStairsWest, shapeStairsSouth, shapeStairsNorth},
	},
	Shapes: map[int][]BoundingBox{
		shapeEmpty:       {},
		shapeFull:        {{MaxX: 1, MaxY: 1, MaxZ: 1}},
		shapeBottomSlab:  {{MaxX: 1, MaxY: 0.5, MaxZ: 1}},
		shapeTopSlab:     {{MinY: 0.5, MaxX: 1, MaxY: 1, MaxZ: 1}},
		shapeSnowLayer:   {{MaxX: 1, MaxY: 0.125, MaxZ: 1}},
		shapeStairsEast:  {{MaxX: 1, MaxY: 0.5, MaxZ: 1}, {MinX: 0.5, MinY: 0.5, MaxX: 1, MaxY: 1, MaxZ: 1}},
		shapeStairsWest:  {{MaxX: 1, MaxY: 0.5, MaxZ: 1}, {MinY: 0.5, MaxX: 0.5, MaxY: 1, MaxZ: 1}},
		shapeStairsSouth: {{MaxX: 1, MaxY: 0.5, MaxZ: 1}, {MinY: 0.5, MinZ: 0.5, MaxX: 1, MaxY: 1, MaxZ: 1}},
		shapeStairsNorth: {{MaxX: 1, MaxY: 0.5, MaxZ: 1}, {MinY: 0.5, MaxX: 1, MaxY: 1, MaxZ: 0.5}},
	},
}
