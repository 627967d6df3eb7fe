package converter

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductModel представляет документ коллекции products в MongoDB.
type ProductModel struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Inventory   int                  `bson:"inventory"`
	IsActive    bool                 `bson:"is_active"`
	CategoryID  *primitive.ObjectID  `bson:"category_id,omitempty"`
	ImageKey    string               `bson:"image_key,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   *time.Time           `bson:"updated_at,omitempty"`
}

// ProductViewModel — результат $lookup товара с его категорией.
type ProductViewModel struct {
	ProductModel `bson:",inline"`
	CategoryName string `bson:"category_name"`
}

// ProductInfoModel — проекция товара для корзины и кэша.
type ProductInfoModel struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Name         string               `bson:"name"`
	Price        primitive.Decimal128 `bson:"price"`
	CategoryName string               `bson:"category_name"`
}

// CategoryModel представляет документ коллекции categories в MongoDB.
type CategoryModel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   *time.Time         `bson:"updated_at,omitempty"`
}

// CartModel представляет документ коллекции carts. Количество товара равно числу повторов его id в items.
type CartModel struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `bson:"user_id"`
	Items     []primitive.ObjectID `bson:"items"`
	Total     primitive.Decimal128 `bson:"total"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

// OrderItemModel — замороженная позиция заказа.
type OrderItemModel struct {
	ProductID primitive.ObjectID   `bson:"product_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int                  `bson:"quantity"`
	Subtotal  primitive.Decimal128 `bson:"subtotal"`
}

// OrderModel представляет документ коллекции orders в MongoDB.
type OrderModel struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	UserID    primitive.ObjectID   `bson:"user_id"`
	Items     []OrderItemModel     `bson:"items"`
	Total     primitive.Decimal128 `bson:"total"`
	Status    string               `bson:"status"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt *time.Time           `bson:"updated_at,omitempty"`
}

// OrderRecordModel — заказ с именем покупателя после $lookup.
type OrderRecordModel struct {
	OrderModel `bson:",inline"`
	UserName   string `bson:"user_name"`
}

// ReviewModel представляет документ коллекции reviews в MongoDB.
type ReviewModel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ProductID primitive.ObjectID `bson:"product_id"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"created_at"`
}

// UserModel представляет документ коллекции users в MongoDB.
type UserModel struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// OutboxEventModel представляет документ коллекции outbox в MongoDB.
type OutboxEventModel struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	EventType     string             `bson:"event_type"`
	AggregateID   string             `bson:"aggregate_id"`
	Payload       []byte             `bson:"payload"`
	Status        string             `bson:"status"`
	Attempts      int                `bson:"attempts"`
	NextAttemptAt time.Time          `bson:"next_attempt_at"`
	LockedUntil   *time.Time         `bson:"locked_until,omitempty"`
	LastError     string             `bson:"last_error,omitempty"`
	CreatedAt     time.Time          `bson:"created_at"`
	ProcessedAt   *time.Time         `bson:"processed_at,omitempty"`
}
