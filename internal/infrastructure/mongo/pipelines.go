package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/umaimono-club/store-directory/api/internal/catalog/domain"
)

// クエリ/パイプラインの組み立てを純粋関数に分離し、単体テスト可能にしている。

// slugFilter は既存スラッグとの衝突を数えるための大文字小文字を無視する条件。
// 保存前の自分自身も数に含むが、まだそのスラッグを使っていないため問題ない。
func slugFilter(base string) bson.M {
	return bson.M{"slug": primitive.Regex{Pattern: domain.SlugPattern(base), Options: "i"}}
}

// byTagFilter はタグ指定時はそのタグを含む店舗、未指定時はタグを 1 つでも
// 持つ店舗に絞り込む。
func byTagFilter(tag string) bson.M {
	if tag == "" {
		return bson.M{"tags.0": bson.M{"$exists": true}}
	}
	return bson.M{"tags": tag}
}

// textSearchFilter は name+description のテキストインデックスに対する検索条件。
func textSearchFilter(query string) bson.M {
	return bson.M{"$text": bson.M{"$search": query}}
}

// textScoreProjection / textScoreSort は関連度スコアの射影とソート。
func textScoreProjection() bson.M {
	return bson.M{"score": bson.M{"$meta": "textScore"}}
}

func textScoreSort() bson.D {
	return bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}
}

// nearFilter は指定座標から maxMeters 以内の店舗を近い順に返す $near 条件。
func nearFilter(lng, lat float64, maxMeters int) bson.M {
	return bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": maxMeters,
			},
		},
	}
}

// tagListPipeline はタグをほどいて出現回数を集計し、多い順に並べる。
func tagListPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
}

// topStoresPipeline はレビューを lookup で結合し、2 件以上レビューのある店舗を
// 平均評価の高い順に limit 件返す。レビュー 0〜1 件の店舗はノイズとして除外する。
func topStoresPipeline(reviewCollection string, limit int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         reviewCollection,
			"localField":   "_id",
			"foreignField": "store",
			"as":           "reviews",
		}}},
		{{Key: "$match", Value: bson.M{"reviews.1": bson.M{"$exists": true}}}},
		{{Key: "$project", Value: bson.M{
			"photo":         1,
			"name":          1,
			"slug":          1,
			"reviewCount":   bson.M{"$size": "$reviews"},
			"averageRating": bson.M{"$avg": "$reviews.rating"},
		}}},
		{{Key: "$sort", Value: bson.M{"averageRating": -1}}},
		{{Key: "$limit", Value: limit}},
	}
}
