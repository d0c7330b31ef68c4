package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/OCharnyshevich/minecraft-light/internal/gamedata"
	"github.com/OCharnyshevich/minecraft-light/internal/server/config"
	"github.com/OCharnyshevich/minecraft-light/internal/server/storage"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world/gen"
)

// Server ticks the light of every configured dimension.
type Server struct {
	cfg   *config.Config
	log   *slog.Logger
	store *storage.Storage
	dims  []*Dimension

	ticks   int
	updates int
}

// New creates a Server with one dimension per configured entry, restoring
// their block edits from store.
func New(cfg *config.Config, blocks *gamedata.Blocks, store *storage.Storage, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Server{cfg: cfg, log: log, store: store}

	for _, dc := range cfg.Dimensions {
		var generator gen.Generator
		switch cfg.GeneratorFor(dc) {
		case "flat":
			generator = gen.NewFlatGenerator(cfg.Seed)
		default:
			generator = gen.NewHillsGenerator(cfg.Seed)
		}
		w := world.NewWorld(generator, blocks)
		if err := store.LoadWorld(dc.Name, w); err != nil {
			s.Close()
			return nil, fmt.Errorf("load dimension %s: %w", dc.Name, err)
		}
		lights, err := store.OpenLightStore(dc.Name)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.dims = append(s.dims, newDimension(dc.Name, w, dc.SkyLight, cfg.RetainOnUnload, lights, log))
	}
	return s, nil
}

// Dimension returns the dimension with the given name.
func (s *Server) Dimension(name string) (*Dimension, bool) {
	for _, d := range s.dims {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

// Dimensions returns every dimension in configuration order.
func (s *Server) Dimensions() []*Dimension {
	return s.dims
}

// Start loads the configured area, then ticks until the context is cancelled
// and saves on the way out.
func (s *Server) Start(ctx context.Context) error {
	for _, d := range s.dims {
		n, err := d.LoadRadius(s.cfg.WorldRadius)
		if err != nil {
			return fmt.Errorf("load dimension %s: %w", d.name, err)
		}
		s.log.Info("dimension loaded", "dimension", d.name, "chunks", n)
	}

	s.log.Info("server started",
		"dimensions", len(s.dims),
		"tickRate", s.cfg.TickRate,
		"lightBudget", s.cfg.LightBudget,
		"generator", s.cfg.GeneratorType,
		"seed", s.cfg.Seed,
	)

	pool := pond.NewPool(len(s.dims))
	defer pool.StopAndWait()

	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer ticker.Stop()

	var saves <-chan time.Time
	if s.cfg.SaveInterval > 0 {
		st := time.NewTicker(time.Duration(s.cfg.SaveInterval) * time.Second)
		defer st.Stop()
		saves = st.C
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("server shutting down")
			return s.Save()
		case <-ticker.C:
			s.Tick(pool)
		case <-saves:
			if err := s.Save(); err != nil {
				s.log.Error("save", "error", err)
			}
		}
	}
}

// Tick runs one light pass on every dimension in parallel and returns the
// number of updates used.
func (s *Server) Tick(pool pond.Pool) int {
	used := make([]int, len(s.dims))

	var wg sync.WaitGroup
	for i, d := range s.dims {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			used[i] = d.Tick(s.cfg.LightBudget)
		})
	}
	wg.Wait()

	total := 0
	for _, n := range used {
		total += n
	}
	s.ticks++
	s.updates += total
	if s.ticks%(s.cfg.TickRate*60) == 0 {
		queued := 0
		for _, d := range s.dims {
			queued += d.QueueSize()
		}
		s.log.Info("light stats", "ticks", s.ticks, "updates", s.updates, "queued", queued)
		s.updates = 0
	}
	return total
}

// Save persists every dimension.
func (s *Server) Save() error {
	start := time.Now()
	var errs []error
	for _, d := range s.dims {
		if err := d.Save(s.store); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Info("saved", "dimensions", len(s.dims), "took", time.Since(start))
	return nil
}

// ExportAnvil writes the loaded chunks of every dimension to region files in
// <dimension>/region below the data directory.
func (s *Server) ExportAnvil() error {
	for _, d := range s.dims {
		dir, err := s.store.DimensionDir(d.name)
		if err != nil {
			return err
		}
		n, err := d.ExportAnvil(filepath.Join(dir, "region"))
		if err != nil {
			return fmt.Errorf("export %s: %w", d.name, err)
		}
		s.log.Info("exported anvil regions", "dimension", d.name, "chunks", n)
	}
	return nil
}

// Close releases the light stores of every dimension.
func (s *Server) Close() error {
	var errs []error
	for _, d := range s.dims {
		if err := d.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
