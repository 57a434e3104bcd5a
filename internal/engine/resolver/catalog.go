package resolver

import "github.com/hejijunhao/teller/internal/model"

// DatasetInfo describes one dataset for listing in a UI.
type DatasetInfo struct {
	Dataset    model.Dataset `json:"dataset"`
	Title      string        `json:"title"`
	Complaints int           `json:"complaints"`   // training set size
	Mode       Mode          `json:"display_mode"` // how decoded labels are rendered
	Categories []string      `json:"categories"`
}

// CategoryView is a catalog category with its resolved icon.
type CategoryView struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Catalog returns every dataset the resolver knows, in display order.
func (r *Resolver) Catalog() []DatasetInfo {
	out := make([]DatasetInfo, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// Dataset returns the catalog entry for ds.
func (r *Resolver) Dataset(ds model.Dataset) (DatasetInfo, bool) {
	for _, info := range r.catalog {
		if info.Dataset == ds {
			return info, true
		}
	}
	return DatasetInfo{}, false
}

// Categories lists ds's catalog categories with their icons.
func (r *Resolver) Categories(ds model.Dataset) []CategoryView {
	info, ok := r.Dataset(ds)
	if !ok {
		return nil
	}
	views := make([]CategoryView, len(info.Categories))
	for i, name := range info.Categories {
		views[i] = CategoryView{Name: name, Icon: r.Icon(name)}
	}
	return views
}
