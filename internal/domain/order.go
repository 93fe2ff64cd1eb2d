package domain

import "time"

// AttributePrimaryZone is the order attribute naming the warehouse zone
// most of the order's inventory lives in.
const AttributePrimaryZone = "primaryZone"

// DefaultZone is assumed when an order carries no zone attribute.
const DefaultZone = "DEFAULT"

// OrderLine is a single SKU demand on an order.
type OrderLine struct {
	SKU      string `bson:"sku" json:"sku"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

// Order is the planner's read model of a fulfillment order. It is owned by
// order management; this service only groups and sequences orders.
type Order struct {
	OrderID      string            `bson:"orderId" json:"order_id"`
	Priority     WavePriority      `bson:"priority" json:"priority"`
	OrderDate    time.Time         `bson:"orderDate" json:"order_date"`
	RequiredDate time.Time         `bson:"requiredDate" json:"required_date"`
	Lines        []OrderLine       `bson:"lines" json:"lines"`
	Carrier      string            `bson:"carrier" json:"carrier"`
	Attributes   map[string]string `bson:"attributes,omitempty" json:"attributes,omitempty"`
	TotalVolume  float64           `bson:"totalVolume" json:"total_volume"`
	TotalWeight  float64           `bson:"totalWeight" json:"total_weight"`
}

// LineCount returns the number of pick lines on the order.
func (o Order) LineCount() int {
	return len(o.Lines)
}

// UnitCount returns the total units across all lines.
func (o Order) UnitCount() int {
	units := 0
	for _, line := range o.Lines {
		units += line.Quantity
	}
	return units
}

// Zone returns the order's primary zone, falling back to DefaultZone.
func (o Order) Zone() string {
	if zone, ok := o.Attributes[AttributePrimaryZone]; ok && zone != "" {
		return zone
	}
	return DefaultZone
}
