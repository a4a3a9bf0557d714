package models

import (
	"time"
)

type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string  `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string  `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string  `gorm:"not null"                 json:"-"`
	Level        string  `gorm:"not null;default:'4'"     json:"level"`
	Status       string  `gorm:"not null;default:'aktif'" json:"status"`
	DeviceID     *string `gorm:"uniqueIndex"              json:"device_id"`
	FCMToken     *string `json:"-"`
	RefreshToken *string `json:"-"`
}

// AdminOpd scopes a level-2 account to a satker/bidang.
type AdminOpd struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint   `gorm:"uniqueIndex;not null"     json:"user_id"`
	KodeSatker string `gorm:"not null"                 json:"kode_satker"`
	KodeBidang string `json:"kode_bidang"`
	Kategori   string `json:"kategori"`
}

// AdminUpt scopes a level-3 account to a satker/UPT.
type AdminUpt struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint   `gorm:"uniqueIndex;not null"     json:"user_id"`
	KodeSatker string `gorm:"not null"                 json:"kode_satker"`
	KodeUpt    string `json:"kode_upt"`
	Kategori   string `json:"kategori"`
}

type Satker struct {
	Kode string `gorm:"primaryKey" json:"kode"`
	Nama string `gorm:"not null"   json:"nama"`
}

type Bidang struct {
	Kode       string `gorm:"primaryKey" json:"kode"`
	KodeSatker string `gorm:"index"      json:"kode_satker"`
	Nama       string `gorm:"not null"   json:"nama"`
}

type Lokasi struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Nama      string  `gorm:"not null"                 json:"nama"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    uint    `gorm:"default:100"              json:"radius"`
}

type Kegiatan struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Nama    string `gorm:"not null"                 json:"nama"`
	Tanggal string `json:"tanggal"`
}

type Absensi struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint      `gorm:"index;not null"           json:"user_id"`
	Type       string    `gorm:"not null"                 json:"type"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	LokasiID   *uint     `json:"lokasi_id"`
	KegiatanID *uint     `json:"id_kegiatan"`
	CreatedAt  time.Time `json:"created_at"`
}
