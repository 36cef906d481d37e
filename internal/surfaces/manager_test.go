package surfaces

import "testing"

type fakeCompositor struct {
	nextID      ID
	created     int
	destroyed   int
	repositions int
	attaches    int
	failCreate  bool
}

func (f *fakeCompositor) CreateSurface(x, y, w, h int) (ID, error) {
	if f.failCreate {
		return 0, errTest
	}
	f.nextID++
	f.created++
	return f.nextID, nil
}

func (f *fakeCompositor) DestroySurface(id ID) error {
	f.destroyed++
	return nil
}

func (f *fakeCompositor) Reposition(id ID, x, y int) error {
	f.repositions++
	return nil
}

func (f *fakeCompositor) Attach(id ID, pixels []byte, w, h, stride int) error {
	f.attaches++
	return nil
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("boom")

func TestAddIsIdempotent(t *testing.T) {
	comp := &fakeCompositor{}
	m := New(comp, nil)

	if err := m.Add("/desktop/a.txt", 0, 0, 80, 104); err != nil {
		t.Fatal(err)
	}
	if err := m.Add("/desktop/a.txt", 0, 0, 80, 104); err != nil {
		t.Fatal(err)
	}
	if comp.created != 1 {
		t.Errorf("created = %d, want 1", comp.created)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	comp := &fakeCompositor{}
	m := New(comp, nil)
	m.Add("/desktop/a.txt", 0, 0, 80, 104)

	if err := m.Remove("/desktop/a.txt"); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove("/desktop/a.txt"); err != nil {
		t.Fatal(err)
	}
	if comp.destroyed != 1 {
		t.Errorf("destroyed = %d, want 1", comp.destroyed)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestIDsAreMonotonicAndNotReused(t *testing.T) {
	comp := &fakeCompositor{}
	m := New(comp, nil)

	m.Add("/desktop/a.txt", 0, 0, 80, 104)
	idA, _ := m.IDFor("/desktop/a.txt")
	m.Remove("/desktop/a.txt")

	m.Add("/desktop/b.txt", 0, 0, 80, 104)
	idB, _ := m.IDFor("/desktop/b.txt")

	if idB <= idA {
		t.Errorf("idB = %d should be greater than reclaimed idA = %d", idB, idA)
	}
}

func TestRepositionNoOpWhenUnmapped(t *testing.T) {
	comp := &fakeCompositor{}
	m := New(comp, nil)
	if err := m.Reposition("/desktop/nope.txt", 10, 10); err != nil {
		t.Fatal(err)
	}
	if comp.repositions != 0 {
		t.Errorf("repositions = %d, want 0", comp.repositions)
	}
}

func TestAttachNoOpWhenUnmapped(t *testing.T) {
	comp := &fakeCompositor{}
	m := New(comp, nil)
	if err := m.Attach("/desktop/nope.txt", nil, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if comp.attaches != 0 {
		t.Errorf("attaches = %d, want 0", comp.attaches)
	}
}

func TestBimapConsistency(t *testing.T) {
	comp := &fakeCompositor{}
	m := New(comp, nil)
	m.Add("/desktop/a.txt", 0, 0, 80, 104)

	id, ok := m.IDFor("/desktop/a.txt")
	if !ok {
		t.Fatal("expected a.txt to be mapped")
	}
	path, ok := m.PathFor(id)
	if !ok || path != "/desktop/a.txt" {
		t.Errorf("PathFor(%d) = %q, %v; want /desktop/a.txt, true", id, path, ok)
	}
}
