package models

import "time"

// Resume 用户保存的简历文本。排序流水线只读取Content，
// 存储与版本管理由外部系统负责。
type Resume struct {
	ResumeID  string    `gorm:"column:resume_id;type:varchar(64);primaryKey" json:"resume_id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);index" json:"user_id"`
	Title     string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Content   string    `gorm:"column:content;type:longtext" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Resume) TableName() string {
	return "resumes"
}
