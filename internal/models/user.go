// internal/models/user.go
package models

// User - клиент маркетплейса. Регистрация проходит в мобильном приложении,
// панель может только блокировать/разблокировать.
type User struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	City        string    `json:"city"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	IsBlocked   Flag      `json:"is_blocked"`
	TotalOrders Numeric   `json:"total_orders"`
	TotalSpent  Numeric   `json:"total_spent"`
	CreatedAt   Timestamp `json:"created_at"`
}

// AdminUser - учётная запись сотрудника панели (таблица admin_users).
type AdminUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  string    `json:"password,omitempty"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  Flag      `json:"is_active"`
	LastLogin Timestamp `json:"last_login"`
	CreatedAt Timestamp `json:"created_at"`
}

// Константы для ролей администраторов
const (
	RoleAdmin     string = "admin"
	RoleModerator string = "moderator"
	RoleSupport   string = "support"
)

// LoginForm - форма входа в панель. Identifier - email или имя пользователя.
type LoginForm struct {
	Identifier string `json:"email" validate:"required,max=255"`
	Password   string `json:"password" validate:"required"`
}
