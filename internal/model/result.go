package model

// InsertResult はinsertOne操作の結果を表す。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult はupdateOne操作の結果を表す。
// 対象が存在しない場合はエラーではなくMatchedCount=0を返す。
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult はdeleteOne操作の結果を表す。
// 対象が存在しない場合はエラーではなくDeletedCount=0を返す。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// FinalizeResult は支払い確定処理の結果を表す。
type FinalizeResult struct {
	InsertResult InsertResult `json:"insertResult"`
	DeleteResult DeleteResult `json:"deleteResult"`
}
