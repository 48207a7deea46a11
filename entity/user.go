package entity

import (
	"net/http"
	"preacc/lib/validate"
)

// User is an API user; every user belongs to exactly one company (tenant).
type User struct {
	Username  string `json:"username" bson:"username" validate:"required"`
	Name      string `json:"name" bson:"name" validate:"omitempty"`
	Email     string `json:"email" bson:"email" validate:"omitempty,email"`
	Token     string `json:"token" bson:"token" validate:"required,min=1"`
	CompanyId string `json:"company_id" bson:"company_id" validate:"required"`
}

func (u *User) Bind(_ *http.Request) error {
	return validate.Struct(u)
}
