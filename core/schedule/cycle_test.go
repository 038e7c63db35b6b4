package schedule

import (
	"reflect"
	"testing"

	"github.com/kilianp07/mineplan/core/model"
)

func catalog(ids ...string) []model.Task {
	tasks := make([]model.Task, len(ids))
	for i, id := range ids {
		tasks[i] = model.Task{TaskID: id, Order: i + 1}
	}
	return tasks
}

func TestBuildCycleSingleFiringNoWrap(t *testing.T) {
	tasks := catalog("T1", "T2", "T3")
	if got := BuildCycle("T1", 1, tasks); !reflect.DeepEqual(got, []string{"T1", "T2", "T3"}) {
		t.Fatalf("unexpected cycle %v", got)
	}
	if got := BuildCycle("T2", 1, tasks); !reflect.DeepEqual(got, []string{"T2", "T3"}) {
		t.Fatalf("unexpected cycle %v", got)
	}
}

func TestBuildCycleZeroFiringsActsAsOne(t *testing.T) {
	tasks := catalog("T1", "T2", "T3")
	if got := BuildCycle("T3", 0, tasks); !reflect.DeepEqual(got, []string{"T3"}) {
		t.Fatalf("unexpected cycle %v", got)
	}
	if got := BuildCycle("T3", -4, tasks); !reflect.DeepEqual(got, []string{"T3"}) {
		t.Fatalf("unexpected cycle %v", got)
	}
}

func TestBuildCycleMultipleFiringsWrap(t *testing.T) {
	tasks := catalog("T1", "T2", "T3")
	want := []string{"T2", "T3", "T1", "T2", "T3", "T1"}
	if got := BuildCycle("T2", 2, tasks); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	if got := BuildCycle("T1", 3, tasks); len(got) != 9 || got[8] != "T3" {
		t.Fatalf("unexpected cycle %v", got)
	}
}

func TestBuildCycleUnknownStartsAtFirst(t *testing.T) {
	tasks := catalog("T1", "T2")
	if got := BuildCycle("missing", 1, tasks); !reflect.DeepEqual(got, []string{"T1", "T2"}) {
		t.Fatalf("unexpected cycle %v", got)
	}
	if got := BuildCycle("", 2, tasks); !reflect.DeepEqual(got, []string{"T1", "T2", "T1", "T2"}) {
		t.Fatalf("unexpected cycle %v", got)
	}
}

func TestBuildCycleEmptyCatalog(t *testing.T) {
	if got := BuildCycle("T1", 3, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
