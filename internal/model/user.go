// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// User 对应于数据库中的 'users' 表。
type User struct {
	// ID 是用户的唯一标识符，作为主键。
	ID uint `gorm:"primaryKey" json:"id"`
	// Username 是唯一的登录名。
	Username string `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	// Email 是用户邮箱，同样要求唯一。
	Email string `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	// Password 存储 bcrypt 哈希后的密码，永远不会被序列化。
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	// FirstName 和 LastName 为可选的展示信息。
	FirstName string `gorm:"type:varchar(30)" json:"firstName"`
	LastName  string `gorm:"type:varchar(30)" json:"lastName"`
	// AvatarObject 是头像在对象存储中的对象名，为空表示未上传头像。
	AvatarObject string `gorm:"type:varchar(255)" json:"-"`
	// Role 是用户角色，默认 USER。
	Role      string    `gorm:"type:varchar(20);not null;default:USER" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// FullName 返回用户的展示名称，姓名为空时回退为用户名。
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
