package models

import "github.com/shopspring/decimal"

// Category is the closed set of item kinds.
type Category string

const (
	CategoryBeer            Category = "beer"
	CategoryBoardGame       Category = "board-game"
	CategoryCake            Category = "cake"
	CategoryCard            Category = "card"
	CategoryCup             Category = "cup"
	CategoryDecoration      Category = "decoration"
	CategoryFood            Category = "food"
	CategoryFruitVegetable  Category = "fruit-vegetable"
	CategoryCelebrationItem Category = "celebration-item"
	CategoryPizza           Category = "pizza"
	CategorySoftDrink       Category = "soft-drink"
	CategoryVideoGame       Category = "video-game"
	CategoryWater           Category = "water"
	CategoryWine            Category = "wine"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBeer, CategoryBoardGame, CategoryCake, CategoryCard, CategoryCup,
	CategoryDecoration, CategoryFood, CategoryFruitVegetable, CategoryCelebrationItem,
	CategoryPizza, CategorySoftDrink, CategoryVideoGame, CategoryWater, CategoryWine,
}

var categoryLabels = map[Category]string{
	CategoryBeer:            "Beer",
	CategoryBoardGame:       "Board Game",
	CategoryCake:            "Cake",
	CategoryCard:            "Cards",
	CategoryCup:             "Cups",
	CategoryDecoration:      "Decorations",
	CategoryFood:            "Food",
	CategoryFruitVegetable:  "Fruits and Vegetables",
	CategoryCelebrationItem: "Celebration Aid",
	CategoryPizza:           "Pizza",
	CategorySoftDrink:       "Soft Drink",
	CategoryVideoGame:       "Video Game",
	CategoryWater:           "Water",
	CategoryWine:            "Wine",
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name, e.g. "Board Game".
func (c Category) Label() string {
	return categoryLabels[c]
}

// Item is something to buy or bring for a party.
type Item struct {
	ID      string
	PartyID string

	Name     string
	Category Category

	// Quantity must be positive.
	Quantity int
	Price    decimal.Decimal

	// Priority is optional; lower is more important by convention.
	Priority *int

	Purchased bool
	Essential bool

	// ForAll items are shared by every participant of the party.
	ForAll bool

	// ConsumerIDs are participant IDs of the same party.
	ConsumerIDs []string

	// Consumers is populated when the store joins participants.
	Consumers []*Participant

	CreatedAt int64
}

// TotalCost is price × quantity. It is never stored.
func (i *Item) TotalCost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *Item) Validate() error {
	if i.PartyID == "" {
		return invalid("party", "this field is required")
	}
	if i.Name == "" {
		return invalid("name", "this field is required")
	}
	if err := validateLength("name", i.Name, 100); err != nil {
		return err
	}
	if !i.Category.Valid() {
		return invalid("category", "%q is not a valid choice", i.Category)
	}
	if i.Quantity <= 0 {
		return invalid("quantity", "must be a positive integer")
	}
	if i.Quantity > MaxSmallInt {
		return invalid("quantity", "must be at most %d", MaxSmallInt)
	}
	if err := validateMoney("price", i.Price); err != nil {
		return err
	}
	if i.Priority != nil && (*i.Priority < 0 || *i.Priority > MaxSmallInt) {
		return invalid("priority", "must be between 0 and %d", MaxSmallInt)
	}
	return nil
}
