package fm

import "testing"

func TestFactoryPatchesValidate(t *testing.T) {
	for _, p := range []*PatchConfig{PatchEP11(), PatchEP22()} {
		if err := p.Validate(); err != nil {
			t.Fatalf("factory patch %s invalid: %v", p.Name, err)
		}
	}
}

func TestDefaultRegistryHoldsFactoryPatches(t *testing.T) {
	r := NewDefaultRegistry()
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Fatalf("unexpected factory ids: got=%v want=[0 1]", ids)
	}
	for id, name := range map[int]string{0: "EP11", 1: "EP22"} {
		p, ok := r.Get(id)
		if !ok || p.Name != name {
			t.Fatalf("expected patch %d to be %s", id, name)
		}
	}
}

func TestRegisterRejectsInvalidPatch(t *testing.T) {
	r := NewRegistry()
	p := PatchEP11()
	p.Ratio[C1] = -1
	if err := r.Register(5, p); err == nil {
		t.Fatalf("expected invalid patch to be rejected")
	}
	if _, ok := r.Get(5); ok {
		t.Fatalf("expected rejected patch to stay unregistered")
	}
	if err := r.Register(5, PatchEP22()); err != nil {
		t.Fatalf("Register: %v", err)
	}
}
