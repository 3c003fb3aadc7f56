package ir

import (
	"strconv"
	"strings"

	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// Resource is one entry of the document resource table. The set is closed:
// *Format, *Asset, *Effect, *Media and *OpaqueResource.
type Resource interface {
	ResourceID() string
	resource()
}

// Format describes a video format.
type Format struct {
	ID            string
	Name          string
	FrameDuration rational.TimeValue
	Width         int
	Height        int
	Extra         Opaque
}

func (f *Format) ResourceID() string { return f.ID }
func (*Format) resource()            {}

// FrameRate returns the format's rate, if it declares a frame duration.
func (f *Format) FrameRate() (rational.FrameRate, bool) {
	if f == nil || f.FrameDuration.Sign() <= 0 {
		return rational.FrameRate{}, false
	}
	r, err := rational.RateFromFrameDuration(f.FrameDuration)
	return r, err == nil
}

// Asset is a reference to source media.
type Asset struct {
	ID       string
	Name     string
	UID      string
	Src      string
	Start    rational.TimeValue
	Duration rational.TimeValue
	HasVideo bool
	HasAudio bool
	Format   string
	Extra    Opaque
}

func (a *Asset) ResourceID() string { return a.ID }
func (*Asset) resource()            {}

// MediaSrc returns the src attribute or, for newer documents, the src of the
// first media-rep child.
func (a *Asset) MediaSrc() string {
	if a.Src != "" {
		return a.Src
	}
	for _, c := range a.Extra.ChildrenNamed("media-rep") {
		if src, ok := c.Attr("src"); ok {
			return src
		}
	}
	return ""
}

// Bounded reports whether the asset declares a source duration.
func (a *Asset) Bounded() bool { return a.Duration.Sign() > 0 }

// Effect is a filter, generator or transition effect.
type Effect struct {
	ID    string
	Name  string
	UID   string
	Extra Opaque
}

func (e *Effect) ResourceID() string { return e.ID }
func (*Effect) resource()            {}

// Media wraps a compound clip's nested sequence.
type Media struct {
	ID       string
	Name     string
	UID      string
	Sequence *Timeline
	Extra    Opaque
}

func (m *Media) ResourceID() string { return m.ID }
func (*Media) resource()            {}

// OpaqueResource keeps an unrecognised resource element intact.
type OpaqueResource struct {
	ID   string
	Node *xmltree.Node
}

func (o *OpaqueResource) ResourceID() string { return o.ID }
func (*OpaqueResource) resource()            {}

// Resources is the ordered id-addressed resource table.
type Resources struct {
	items []Resource
	byID  map[string]Resource
	Extra Opaque
}

// NewResources returns an empty table.
func NewResources() *Resources {
	return &Resources{byID: make(map[string]Resource)}
}

// Add appends res. A duplicate id is a structural violation.
func (r *Resources) Add(res Resource) error {
	id := res.ResourceID()
	if id != "" {
		if _, dup := r.byID[id]; dup {
			return Structuralf("duplicate resource id").WithSubject(id)
		}
		r.byID[id] = res
	}
	r.items = append(r.items, res)
	return nil
}

// Remove deletes the resource with id.
func (r *Resources) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, res := range r.items {
		if res.ResourceID() == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the resource with id.
func (r *Resources) Get(id string) (Resource, bool) {
	res, ok := r.byID[id]
	return res, ok
}

// Items returns resources in document order.
func (r *Resources) Items() []Resource { return r.items }

// Len is the number of resources.
func (r *Resources) Len() int { return len(r.items) }

// Format looks up a format by id.
func (r *Resources) Format(id string) (*Format, bool) {
	f, ok := r.byID[id].(*Format)
	return f, ok
}

// Asset looks up an asset by id.
func (r *Resources) Asset(id string) (*Asset, bool) {
	a, ok := r.byID[id].(*Asset)
	return a, ok
}

// Effect looks up an effect by id.
func (r *Resources) Effect(id string) (*Effect, bool) {
	e, ok := r.byID[id].(*Effect)
	return e, ok
}

// Media looks up a compound media resource by id.
func (r *Resources) Media(id string) (*Media, bool) {
	m, ok := r.byID[id].(*Media)
	return m, ok
}

// FindAsset resolves an asset by id, then by unique name.
func (r *Resources) FindAsset(ref string) (*Asset, error) {
	if a, ok := r.Asset(ref); ok {
		return a, nil
	}
	var found *Asset
	for _, res := range r.items {
		if a, ok := res.(*Asset); ok && a.Name == ref {
			if found != nil {
				return nil, Referencef("asset name is ambiguous; use a resource id").WithSubject(ref)
			}
			found = a
		}
	}
	if found == nil {
		return nil, Referencef("asset not found").WithSubject(ref)
	}
	return found, nil
}

// FindEffect returns the first effect whose name or uid matches.
func (r *Resources) FindEffect(nameOrUID string) (*Effect, bool) {
	for _, res := range r.items {
		if e, ok := res.(*Effect); ok && (e.Name == nameOrUID || e.UID == nameOrUID) {
			return e, true
		}
	}
	return nil, false
}

// NextID returns an unused "rN" id, one past the highest numeric r-id.
func (r *Resources) NextID() string {
	max := 0
	for id := range r.byID {
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "r")); err == nil && strings.HasPrefix(id, "r") && n > max {
			max = n
		}
	}
	for {
		max++
		id := "r" + strconv.Itoa(max)
		if _, taken := r.byID[id]; !taken {
			return id
		}
	}
}
