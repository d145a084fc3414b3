package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Name         string `gorm:"not null"                 json:"name"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type Item struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"uniqueIndex;not null"     json:"name"`
	ImageOne    string  `gorm:"not null"                 json:"image_1"`
	ImageTwo    string  `json:"image_2"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Description string  `json:"description"`
}

// CartLine snapshots an Item at add-time. ItemID is a soft reference:
// deleting the item leaves existing lines untouched, and the captured
// name/image/price never change after creation.
type CartLine struct {
	ID     uint    `gorm:"primaryKey"     json:"id"`
	ItemID uint    `gorm:"index"          json:"item_id"`
	UserID uint    `gorm:"index;not null" json:"user_id"`
	Name   string  `gorm:"not null"       json:"name"`
	Image  string  `gorm:"not null"       json:"image"`
	Price  float64 `gorm:"not null"       json:"price"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
