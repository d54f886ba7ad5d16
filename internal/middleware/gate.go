package middleware

import "net/http"

// Gate はハンドラの前に評価される通過条件。
// 通過する場合は後続に渡すリクエスト（コンテキストに値を追加したもの）を返し、
// 拒否する場合はエラーを返す。*model.APIError以外のエラーは500として扱われる。
type Gate func(r *http.Request) (*http.Request, error)

// Guard はgatesを指定順に評価し、すべて通過した場合のみnextを呼び出すミドルウェアを返す。
// 最初に失敗したGateのエラーを統一エラーフォーマットで書き込み、以降のGateとハンドラは実行しない。
func Guard(gates ...Gate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, gate := range gates {
				passed, err := gate(r)
				if err != nil {
					WriteError(w, r, err)
					return
				}
				r = passed
			}
			next.ServeHTTP(w, r)
		})
	}
}
