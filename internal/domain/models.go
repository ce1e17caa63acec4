// Package domain defines the persistence models for universities, clubs,
// users, and club images. These types are mapped with GORM and form the core
// data layer of the club directory application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Conversation roles accepted in chat history payloads.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// University is immutable reference data seeded at startup. Reading holds the
// phonetic key used for alphabetic (kana) browsing of the directory.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Name: unique display name.
//   - Reading: kana reading key; indexed for prefix lookups.
//   - Domain: optional mail domain of the institution.
type University struct {
	ID        uint      `json:"id"      gorm:"primaryKey"`
	Name      string    `json:"name"    gorm:"type:varchar(255);not null;uniqueIndex"`
	Reading   string    `json:"reading" gorm:"type:varchar(255);not null;index:idx_university_reading"`
	Domain    *string   `json:"domain,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for University.
func (University) TableName() string { return "universities" }

// User is an account that can own clubs. Name doubles as the login id for
// the credentials flow; Email is unique within a university.
type User struct {
	ID             uint           `json:"id"    gorm:"primaryKey"`
	Email          string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_user_university_email,priority:2"`
	Name           string         `json:"name"  gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordDigest string         `json:"-"     gorm:"type:varchar(255);not null"`
	AuthProvider   string         `json:"auth_provider" gorm:"type:varchar(32);not null;default:'password'"`
	UniversityID   uint           `json:"university_id" gorm:"not null;index;uniqueIndex:ux_user_university_email,priority:1"`
	LastSignInAt   *time.Time     `json:"last_sign_in_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	University University `json:"university,omitempty" gorm:"foreignKey:UniversityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Club is a student club listed in the directory. Deactivation is a soft
// delete: IsActive=false removes the club from public listings and from chat
// recommendations while retaining the row.
//
// Category is an optional owner-declared tag (SPORTS/CULTURE/OTHER). The chat
// pipeline never reads it; recommendation buckets are recomputed per request
// from Name and Description.
type Club struct {
	ID           uint           `json:"id"   gorm:"primaryKey"`
	UniversityID uint           `json:"university_id" gorm:"not null;index;uniqueIndex:ux_club_university_name,priority:1"`
	OwnerID      uint           `json:"owner_id" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:ux_club_university_name,priority:2"`
	MemberCount  int            `json:"member_count" gorm:"not null;default:1;check:member_count >= 1"`
	Description  string         `json:"description" gorm:"type:text;not null;default:''"`
	IsActive     bool           `json:"is_active" gorm:"not null;default:true;index"`
	Category     *string        `json:"category,omitempty" gorm:"type:varchar(16);check:category IN ('SPORTS','CULTURE','OTHER')"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	University University  `json:"university,omitempty" gorm:"foreignKey:UniversityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Owner      User        `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Images     []ClubImage `json:"images,omitempty" gorm:"foreignKey:ClubID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Club.
func (Club) TableName() string { return "clubs" }

// MaxClubImages caps the ordered image list per club.
const MaxClubImages = 5

// ClubImage is one entry of a club's ordered image list (Position 0..4).
type ClubImage struct {
	ID        uint      `json:"id"       gorm:"primaryKey"`
	ClubID    uint      `json:"club_id"  gorm:"not null;index;uniqueIndex:ux_club_image_position,priority:1"`
	Position  int       `json:"position" gorm:"not null;uniqueIndex:ux_club_image_position,priority:2;check:position >= 0 AND position < 5"`
	URL       string    `json:"url"      gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ClubImage.
func (ClubImage) TableName() string { return "club_images" }

// ConversationTurn is one prior utterance supplied by the caller on a chat
// request. It is never persisted; the server is stateless across chat
// requests apart from the rate-limit store.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
