package model

type UserRole string

const (
	Learner UserRole = "user"
	Admin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == Learner || r == Admin
}

// swagger:model User
type User struct {
	BaseModel
	Username string   `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email    string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	FullName string   `gorm:"size:150" json:"fullName"`
	Role     UserRole `gorm:"size:20;default:'user'" json:"role"`
	IsActive bool     `gorm:"default:true" json:"isActive"`
	Level    Level    `gorm:"size:20;default:'beginner'" json:"level"`
}

func (User) TableName() string {
	return "users"
}
