package registry

import (
	"testing"

	"github.com/vovakirdan/jungle-code/internal/core"
)

type stubGame struct{ id string }

func (g stubGame) ID() string                           { return g.id }
func (g stubGame) Title() string                        { return "Stub " + g.id }
func (g stubGame) Reset(core.RuntimeConfig)             {}
func (g stubGame) Step(core.InputFrame) core.StepResult { return core.StepResult{} }
func (g stubGame) Render(*core.Screen)                  {}
func (g stubGame) State() core.GameState                { return core.GameState{} }

func TestRegisterCreateList(t *testing.T) {
	Register("zz-stub", func() Game { return stubGame{id: "zz-stub"} })
	Register("aa-stub", func() Game { return stubGame{id: "aa-stub"} })

	if !Exists("zz-stub") {
		t.Fatal("registered mode should exist")
	}

	g, err := Create("aa-stub")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if g.ID() != "aa-stub" {
		t.Errorf("created %q, expected aa-stub", g.ID())
	}

	list := List()
	var idxA, idxZ = -1, -1
	for i, info := range list {
		switch info.ID {
		case "aa-stub":
			idxA = i
			if info.Title != "Stub aa-stub" {
				t.Errorf("unexpected title %q", info.Title)
			}
		case "zz-stub":
			idxZ = i
		}
	}
	if idxA < 0 || idxZ < 0 || idxA > idxZ {
		t.Errorf("List should be sorted by id, got %+v", list)
	}
}

func TestCreateUnknown(t *testing.T) {
	if _, err := Create("does-not-exist"); err == nil {
		t.Error("expected error for unknown id")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("dup-stub", func() Game { return stubGame{id: "dup-stub"} })

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration should panic")
		}
	}()
	Register("dup-stub", func() Game { return stubGame{id: "dup-stub"} })
}
