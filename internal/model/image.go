package model

// Image はスライダーに表示する車両画像を表す。
type Image struct {
	Src  string `json:"src"`
	Name string `json:"name"`
}
