package models

type User struct {
	ID           string `json:"id" bson:"_id"`
	Email        string `json:"email" bson:"email"`
	PasswordHash string `json:"-" bson:"passwordHash"`
	CreatedAt    string `json:"createdAt" bson:"createdAt"`
}
