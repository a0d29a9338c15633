package factory

import (
	"testing"
	"time"
)

type sink struct {
	Addr     string
	Interval time.Duration
}

type sinkConf struct {
	Addr     string        `json:"addr"`
	Interval time.Duration `json:"interval"`
	Retries  int           `json:"retries"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	if err := reg.Register("push", func(conf map[string]any) (*sink, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sink{Addr: c.Addr, Interval: c.Interval}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "push", Conf: map[string]any{"addr": "localhost:9091", "interval": "30s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Addr != "localhost:9091" || inst.Interval != 30*time.Second {
		t.Fatalf("unexpected sink %+v", inst)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); err == nil {
		t.Fatal("expected unknown type error")
	}
}

func TestRegistry_Types(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"b", "a", "c"} {
		_ = reg.Register(n, func(map[string]any) (int, error) { return 0, nil })
	}
	got := reg.Types()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected types %v", got)
	}
}

func TestDecode_WeakNumbers(t *testing.T) {
	var c sinkConf
	if err := Decode(map[string]any{"retries": "3"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Retries != 3 {
		t.Fatalf("expected 3 got %d", c.Retries)
	}
}
