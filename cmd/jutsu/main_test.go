package main

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ayusman/jutsu/internal/config"
	"github.com/ayusman/jutsu/internal/gesture"
	"github.com/ayusman/jutsu/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "jutsu.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadLibrary_SeedsOnFirstRun(t *testing.T) {
	st := newTestStore(t)
	cfg := config.Defaults()

	lib, err := loadLibrary(st, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("loadLibrary() error = %v", err)
	}
	if lib.Len() != 4 {
		t.Errorf("Len() = %d, want 4", lib.Len())
	}
	if n, _ := st.Combos().Count(); n != 4 {
		t.Errorf("stored combos = %d, want 4", n)
	}
}

func TestLoadLibrary_StoredCombosWin(t *testing.T) {
	st := newTestStore(t)
	custom := gesture.ComboDefinition{ID: "7", Name: "Sharingan", Sequence: []gesture.Gesture{gesture.Horse}, Duration: 90}
	if err := st.Combos().Create(custom); err != nil {
		t.Fatal(err)
	}

	lib, err := loadLibrary(st, config.Defaults(), zap.NewNop())
	if err != nil {
		t.Fatalf("loadLibrary() error = %v", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("Len() = %d, want only the stored combo", lib.Len())
	}
	def, ok := lib.Get("7")
	if !ok || def.Duration != 90 {
		t.Errorf("Get(7) = %+v, %v", def, ok)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := newLogger(level)
			if err != nil {
				t.Fatalf("newLogger(%q) error = %v", level, err)
			}
			logger.Sync()
		})
	}

	if _, err := newLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
