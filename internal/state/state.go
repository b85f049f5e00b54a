// Package state wires the config, store, sync client, and session into the
// bundle the commands share.
package state

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/quirelabs/quire/internal/config"
	"github.com/quirelabs/quire/internal/constants"
	"github.com/quirelabs/quire/internal/markup"
	"github.com/quirelabs/quire/internal/projection"
	"github.com/quirelabs/quire/internal/session"
	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/internal/store/pgstore"
	"github.com/quirelabs/quire/internal/sync"
	"github.com/quirelabs/quire/internal/track"
)

type State struct {
	Config     *config.Config
	Store      store.Store
	Projection *projection.Engine
	Session    *session.FocusSlot
	Syncer     *sync.Client
	Tracker    track.Tracker
	Extractor  markup.Extractor
	Home       string
}

func NewState() (*State, error) {
	home, err := GetHomeDir()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(home)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	syncer, err := sync.NewClient(cfg.Sync.Endpoint, cfg.Sync.Token, cfg.Sync.Secret, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	tracker, err := openTracker(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	extractor := markup.ForStrategy(cfg.Extractor)

	return &State{
		Config:     cfg,
		Store:      st,
		Projection: projection.NewEngine(st, extractor),
		Session:    session.NewFocusSlot(),
		Syncer:     syncer,
		Tracker:    tracker,
		Extractor:  extractor,
		Home:       home,
	}, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return pgstore.Open(context.Background(), cfg.DSN)
	default:
		st, err := store.Open(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		// Mirror edits made by other processes into the change feed.
		if err := st.WatchFS(context.Background()); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
}

func openTracker(cfg *config.Config) (track.Tracker, error) {
	if !cfg.Tracking.Enable {
		return track.Noop{}, nil
	}
	return track.OpenFile(cfg.Tracking.Directory)
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

func LoadConfig(home string) (*config.Config, error) {
	viper.AddConfigPath(home + constants.ConfigDir)
	viper.SetConfigName(constants.ConfigFile)
	viper.SetConfigType(constants.ConfigFileType)
	viper.ReadInConfig()

	err := config.EnsureConfigExists(home)
	if err != nil {
		return nil, err
	}

	return config.Load(home)
}

// Close releases the store and tracker.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var firstErr error
	if s.Tracker != nil {
		if err := s.Tracker.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
