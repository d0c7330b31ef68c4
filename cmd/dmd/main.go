package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	get "github.com/hashicorp/go-getter"

	"github.com/OCharnyshevich/minecraft-light/internal/gamedata"
)

// dmd downloads the minecraft-data block tables of one version and checks
// that they load as a light registry.
func main() {
	var (
		base     = flag.String("base", "https://github.com/PrismarineJS/minecraft-data.git", "base url")
		platform = flag.String("platform", "pc", "platform of schemas")
		ver      = flag.String("version", "1.8", "version of schemas")
		out      = flag.String("o", "./blockdata", "output dir path")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *out == "" || *platform == "" || *ver == "" {
		log.Error("output dir, platform and version are required")
		os.Exit(2)
	}

	path := filepath.Join(*out, fmt.Sprintf("%s-%s", *platform, *ver))
	if err := os.RemoveAll(path); err != nil {
		log.Error("clear output dir", "path", path, "error", err)
		os.Exit(1)
	}

	log.Info("start downloading block data", "path", path)

	// https://github.com/PrismarineJS/minecraft-data/tree/master/data/pc/1.8
	url := fmt.Sprintf("git::%s//data/%s/%s", *base, *platform, *ver)
	if err := get.Get(path, url); err != nil {
		log.Error("download", "url", url, "error", err)
		os.Exit(1)
	}

	blocks, err := gamedata.LoadDir(path)
	if err != nil {
		log.Error("load downloaded block data", "error", err)
		os.Exit(1)
	}

	emitters, filters := 0, 0
	for _, b := range blocks.All() {
		if b.EmitLight > 0 {
			emitters++
		}
		if b.FilterLight > 0 && b.FilterLight < 15 {
			filters++
		}
	}
	log.Info("done downloading block data",
		"path", path,
		"blocks", len(blocks.All()),
		"emitters", emitters,
		"translucent", filters,
	)
}
