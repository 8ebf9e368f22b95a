package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationDocument は店舗の GeoJSON Point と住所を表す埋め込みドキュメント。
type LocationDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
	Address     string    `bson:"address"`
}

// StoreDocument は MongoDB 上での店舗スキーマを Go 構造体として表現したもの。
// reviews は物理的にここへ保存せず、読み取り時に store への逆参照で合成する。
type StoreDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	Created     time.Time          `bson:"created"`
	Location    *LocationDocument  `bson:"location,omitempty"`
	Photo       string             `bson:"photo,omitempty"`
	Author      primitive.ObjectID `bson:"author"`
}

// ReviewDocument は店舗レビューのスキーマ。store フィールドが逆参照キー。
type ReviewDocument struct {
	ID      primitive.ObjectID `bson:"_id"`
	Store   primitive.ObjectID `bson:"store"`
	Author  primitive.ObjectID `bson:"author"`
	Rating  float64            `bson:"rating"`
	Text    string             `bson:"text"`
	Created time.Time          `bson:"created"`
}

// UserDocument はアカウントのスキーマ。hearts はお気に入り店舗 ID の集合。
type UserDocument struct {
	ID                   primitive.ObjectID   `bson:"_id"`
	Email                string               `bson:"email"`
	Name                 string               `bson:"name"`
	Password             []byte               `bson:"password"`
	Hearts               []primitive.ObjectID `bson:"hearts,omitempty"`
	ResetPasswordToken   string               `bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time           `bson:"resetPasswordExpires,omitempty"`
	Created              time.Time            `bson:"created"`
}
