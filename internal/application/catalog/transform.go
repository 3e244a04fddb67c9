package catalog

import (
	"time"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
)

// PatchFromRemote builds the canonical patch of what one site reports for a
// product. Only the site's sub-keys are set, except on the reference site
// which also owns the shared name, images, categories and attributes.
func PatchFromRemote(sku string, site, ref shared.SiteCode, rp *integration.RemoteProduct, vs []integration.RemoteVariation, at time.Time) *catalog.Product {
	patch := catalog.Patch(sku)
	patch.SetRemoteID(site, rp.ID)

	price, regular := rp.Price, rp.RegularPrice
	if rp.IsVariable() && len(vs) > 0 {
		// variable parents report aggregated prices; the first variant is authoritative
		if vs[0].Price.IsSet() {
			price = vs[0].Price
		}
		if vs[0].RegularPrice.IsSet() {
			regular = vs[0].RegularPrice
		}
	}
	if price.IsSet() {
		patch.Prices[site] = price.Decimal()
	}
	if regular.IsSet() {
		patch.RegularPrices[site] = regular.Decimal()
	}
	if rp.StockQuantity != nil {
		patch.StockQuantities[site] = *rp.StockQuantity
	}
	if s := catalog.StockStatus(rp.StockStatus); s.IsValid() {
		patch.StockStatuses[site] = s
	}
	if s := catalog.PublishStatus(rp.Status); s.IsValid() {
		patch.Statuses[site] = s
	}
	patch.Content[site] = catalog.Content{
		Name:             rp.Name,
		Description:      rp.Description,
		ShortDescription: rp.ShortDescription,
	}
	if rp.IsVariable() {
		patch.SetVariations(site, Snapshots(vs))
	}
	patch.SyncStatus[site] = catalog.SyncStatusSynced
	patch.LastSyncedAt = &at

	if site == ref {
		patch.Name = rp.Name
		patch.Images = imageURLs(rp.Images)
		patch.Categories = categoryNames(rp.Categories)
		patch.Attributes = catalog.ExtractAttributes(remoteAttributes(rp.Attributes))
	}
	return patch
}

func imageURLs(images []integration.RemoteImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img.Src != "" {
			out = append(out, img.Src)
		}
	}
	return out
}

func categoryNames(cats []integration.RemoteCategoryRef) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Name != "" {
			out = append(out, c.Name)
		}
	}
	return out
}

func remoteAttributes(attrs []integration.RemoteAttribute) []catalog.RemoteAttribute {
	out := make([]catalog.RemoteAttribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, catalog.RemoteAttribute{Name: a.Name, Options: a.Options})
	}
	return out
}

// descriptiveAttributes renders the jersey attributes as visible,
// non-variation storefront attributes. The names round-trip through
// catalog.ExtractAttributes.
func descriptiveAttributes(a catalog.Attributes) []integration.RemoteAttribute {
	var out []integration.RemoteAttribute
	add := func(name string, options ...string) {
		var opts []string
		for _, o := range options {
			if o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) > 0 {
			out = append(out, integration.RemoteAttribute{Name: name, Options: opts, Visible: true})
		}
	}
	add("Team", a.Team)
	add("Season", a.Season)
	add("Jersey Type", a.Type)
	add("Version", a.Version)
	add("Gender", a.Gender)
	add("Sleeve Length", a.Sleeve)
	add("Events", a.Events...)
	return out
}

func remoteImages(urls []string) []integration.RemoteImage {
	out := make([]integration.RemoteImage, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, integration.RemoteImage{Src: u})
		}
	}
	return out
}
