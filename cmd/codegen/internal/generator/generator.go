package generator

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"text/template"

	"github.com/OCharnyshevich/minecraft-light/internal/gamedata"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Config struct {
	SchemeDir string
	OutFile   string
	Package   string
	Version   string
}

type shapeBlockTmpl struct {
	Name string
	IDs  gamedata.ShapeIDs
}

type shapeTmpl struct {
	ID    int
	Boxes []gamedata.BoundingBox
}

type templateData struct {
	Source      string
	Package     string
	Version     string
	Var         string
	Blocks      []gamedata.Block
	ShapeBlocks []shapeBlockTmpl
	Shapes      []shapeTmpl
}

// Run renders the block table of cfg.SchemeDir as a registered Go table.
func Run(cfg Config) error {
	blocks, shapes, err := gamedata.ReadDir(cfg.SchemeDir)
	if err != nil {
		return err
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	td := buildData(cfg, blocks, shapes)
	if err := renderToFile(tmpl, "blocks.go.tmpl", cfg.OutFile, td); err != nil {
		return err
	}
	fmt.Printf("  generated %s: %d blocks, %d shapes\n", cfg.OutFile, len(td.Blocks), len(td.Shapes))
	return nil
}

// buildData keeps the collision shapes of blocks that let some light through;
// opaque blocks never occlude by shape.
func buildData(cfg Config, blocks []gamedata.Block, shapes *gamedata.CollisionShapes) templateData {
	td := templateData{
		Source:  filepath.ToSlash(cfg.SchemeDir),
		Package: cfg.Package,
		Version: cfg.Version,
		Var:     varName(cfg.Version),
	}
	for _, b := range blocks {
		b.Variations = nil
		td.Blocks = append(td.Blocks, b)
	}
	sort.Slice(td.Blocks, func(i, j int) bool { return td.Blocks[i].ID < td.Blocks[j].ID })

	if shapes == nil {
		return td
	}
	used := make(map[int]bool)
	for _, b := range td.Blocks {
		ids, ok := shapes.Blocks[b.Name]
		if !ok || b.FilterLight >= 15 {
			continue
		}
		td.ShapeBlocks = append(td.ShapeBlocks, shapeBlockTmpl{Name: b.Name, IDs: ids})
		for _, id := range ids {
			used[id] = true
		}
	}
	for id := range used {
		td.Shapes = append(td.Shapes, shapeTmpl{ID: id, Boxes: shapes.Shapes[id]})
	}
	slices.SortFunc(td.Shapes, func(a, b shapeTmpl) int { return a.ID - b.ID })
	return td
}

// varName turns a version such as "pc-1.8" into an identifier prefix.
func varName(version string) string {
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, version)
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "v" + name
	}
	return name
}

func renderToFile(tmpl *template.Template, name, outFile string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format %s: %w", outFile, err)
	}
	if err := os.WriteFile(outFile, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outFile, err)
	}
	return nil
}
