// Package gallery は画像ディレクトリから車両スライダー用の画像一覧を生成する。
package gallery

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hitoshi/quickride/internal/model"
)

// URLPrefix は画像の公開URLのパス接頭辞。
const URLPrefix = "/image/"

// supportedExt は一覧に含める画像拡張子。大文字小文字を区別しない。
var supportedExt = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)$`)

// lastExt はファイル名末尾の拡張子。
var lastExt = regexp.MustCompile(`\.[^/.]+$`)

// friendlyNames はファイル名から表示用の車種名への対応表。
var friendlyNames = map[string]string{
	"car1.jpg": "Sedan",
	"car3.jpg": "SUV",
	"car4.jpg": "Coupe",
	"img1.jpg": "Convertible",
}

// Lister は画像ディレクトリを走査する。
type Lister struct {
	dir string
}

// NewLister はdirを走査するListerを生成する。
func NewLister(dir string) *Lister {
	return &Lister{dir: dir}
}

// List は対応拡張子の画像を表示名の昇順（バイト順）で返す。
// 表示名が同じ画像はディレクトリの列挙順を保つ。
// ディレクトリが読めない場合はIOErrorを返す。
func (l *Lister) List(ctx context.Context) ([]model.Image, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read images folder",
			slog.String("dir", l.dir),
			slog.String("error", err.Error()),
		)
		return nil, model.NewIOError("Could not read images")
	}

	images := make([]model.Image, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !supportedExt.MatchString(e.Name()) {
			continue
		}
		images = append(images, model.Image{
			Src:  URLPrefix + e.Name(),
			Name: FriendlyName(e.Name()),
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Name < images[j].Name
	})

	return images, nil
}

// FriendlyName はファイル名の表示名を返す。
// 対応表にない場合は最後の拡張子を除き、ハイフンとアンダースコアを空白に置き換える。
func FriendlyName(filename string) string {
	if name, ok := friendlyNames[filename]; ok {
		return name
	}
	base := lastExt.ReplaceAllString(filename, "")
	return strings.NewReplacer("-", " ", "_", " ").Replace(base)
}
