// Package catalog holds the data model shared by the extraction and
// synchronization pipeline: the raw listing records produced by the
// scrapers and the canonical product schema consumed by the store and
// the remote API.
package catalog

// Spec is a single label/value pair scraped from a detail page.
// Pairs are kept in document order so downstream tag derivation
// stays reproducible.
type Spec struct {
	Label string
	Value string
}

// SpecBlock is an ordered list of label/value pairs from one
// structural region of a detail page.
type SpecBlock []Spec

// Get returns the value for a label, or "" if absent.
func (b SpecBlock) Get(label string) string {
	for _, s := range b {
		if s.Label == label {
			return s.Value
		}
	}
	return ""
}

// Set appends the pair or overwrites an existing label in place.
func (b SpecBlock) Set(label, value string) SpecBlock {
	for i, s := range b {
		if s.Label == label {
			b[i].Value = value
			return b
		}
	}
	return append(b, Spec{Label: label, Value: value})
}

// RawItem is one listing entry before normalization. The listing
// extractor creates it, the detail extractor fills Description and the
// spec blocks, the image acquirer fills LocalImage. It is never
// mutated after the transform engine consumes it.
type RawItem struct {
	Ordinal   int    `json:"id"`
	Title     string `json:"titulo"`
	PriceText string `json:"precio"`
	Condition string `json:"condicion,omitempty"`
	Location  string `json:"ubicacion,omitempty"`
	Shipping  string `json:"envio,omitempty"`
	Link      string `json:"link,omitempty"`
	ImageURL  string `json:"url_imagen,omitempty"`
	// local path of the downloaded image, empty when the download was
	// skipped or failed
	LocalImage string `json:"imagen_local,omitempty"`

	Description string    `json:"descripcion,omitempty"`
	PrimarySpec SpecBlock `json:"caracteristicas_principales,omitempty"`
	SalesSpec   SpecBlock `json:"caracteristicas_ventas,omitempty"`
	OtherSpec   SpecBlock `json:"otras_caracteristicas,omitempty"`
}

// Image is one product image descriptor of the canonical schema.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"textoAlternativo"`
	Primary bool   `json:"esPrincipal"`
}

// Multimedia wraps the image list. At most one image is kept per
// product, marked primary.
type Multimedia struct {
	Images []Image `json:"imagenes"`
}

// Description carries the short/full description pair. Corta is
// capped at 160 characters.
type Description struct {
	Short string `json:"corta"`
	Full  string `json:"completa,omitempty"`
}

// Variant is one purchasable variation of a product. Every scraped
// product gets exactly one default variant.
type Variant struct {
	Name     string `json:"nombre"`
	Unit     string `json:"unidad"`
	Price    int    `json:"precio"`
	Discount int    `json:"descuento"`
	SKU      string `json:"sku"`
	Default  bool   `json:"esPredeterminado"`
}

// SEO is the search projection of a product.
type SEO struct {
	MetaTitle       string   `json:"metaTitulo"`
	MetaDescription string   `json:"metaDescripcion"`
	Keywords        []string `json:"palabrasClave"`
}

// Product is the canonical schema the pipeline outputs, independent of
// source-site markup. The JSON field names are the remote catalog
// API's contract. Fields that end up empty are omitted entirely from
// the persisted form.
type Product struct {
	SKU           string         `json:"sku"`
	Name          string         `json:"nombre"`
	Slug          string         `json:"slug"`
	Category      string         `json:"categoria"`
	Subcategory   string         `json:"subcategoria"`
	Description   *Description   `json:"descripcion,omitempty"`
	Multimedia    *Multimedia    `json:"multimedia,omitempty"`
	Active        bool           `json:"estado"`
	Tags          []string       `json:"tags,omitempty"`
	Variants      []Variant      `json:"variantes"`
	Attributes    map[string]any `json:"atributos,omitempty"`
	SEO           *SEO           `json:"seo,omitempty"`
	Brand         string         `json:"marca,omitempty"`
	Refrigeration bool           `json:"requiereRefrigeracion"`
	RatingAverage float64        `json:"ratingAverage"`
}
