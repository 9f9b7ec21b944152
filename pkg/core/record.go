package core

// Record is a browsable item: a stable id plus named, typed fields.
type Record interface {
	RecordID() string
	Field(name string) (Value, bool)
}

// ProductStatus is the lifecycle state of a product.
type ProductStatus string

// Product statuses. The tab shortcut uses the same names plus "all".
const (
	StatusActive   ProductStatus = "active"
	StatusArchived ProductStatus = "archived"
	StatusDraft    ProductStatus = "draft"
)

// Product is the record shape shipped with leapgrid.
type Product struct {
	ID          string        `json:"id" yaml:"id" mapstructure:"id"`
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Description string        `json:"description" yaml:"description" mapstructure:"description"`
	Category    string        `json:"category" yaml:"category" mapstructure:"category"`
	Price       float64       `json:"price" yaml:"price" mapstructure:"price"`
	Stock       int           `json:"stock" yaml:"stock" mapstructure:"stock"`
	Rating      float64       `json:"rating" yaml:"rating" mapstructure:"rating"`
	DateAdded   string        `json:"dateAdded" yaml:"dateAdded" mapstructure:"dateAdded"`
	Tags        []string      `json:"tags" yaml:"tags" mapstructure:"tags"`
	Status      ProductStatus `json:"status" yaml:"status" mapstructure:"status"`
	Image       string        `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
}

// ProductFields lists the field names a Product exposes, in display order.
var ProductFields = []string{
	"id", "name", "description", "category", "price", "stock",
	"rating", "dateAdded", "tags", "status", "image",
}

// RecordID implements Record.
func (p Product) RecordID() string { return p.ID }

// Field implements Record.
func (p Product) Field(name string) (Value, bool) {
	switch name {
	case "id":
		return StringValue(p.ID), true
	case "name":
		return StringValue(p.Name), true
	case "description":
		return StringValue(p.Description), true
	case "category":
		return StringValue(p.Category), true
	case "price":
		return NumberValue(p.Price), true
	case "stock":
		return NumberValue(float64(p.Stock)), true
	case "rating":
		return NumberValue(p.Rating), true
	case "dateAdded":
		d, err := ParseDate(p.DateAdded)
		if err != nil {
			return StringValue(p.DateAdded), true
		}
		return DateValue(d), true
	case "tags":
		return ListValue(p.Tags), true
	case "status":
		return StringValue(string(p.Status)), true
	case "image":
		return StringValue(p.Image), true
	default:
		return Value{}, false
	}
}
