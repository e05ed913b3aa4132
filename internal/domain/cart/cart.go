// Package cart はセッションに保存される買い物かごを扱う。
// DBのトランザクションには参加せず、変更のたびにセッションへ書き戻す。
package cart

import (
	"context"
	"strconv"
	"strings"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// Entry はセッションに保存される1行。UnitPriceは初回追加時の価格。
type Entry struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

func (e Entry) Subtotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(e.Quantity))
}

// Item は表示用に商品情報を付けた行
type Item struct {
	Product    model.Product   `json:"product"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Session はカートの保存先。SetCartLinesはセッションを変更済みにする。
type Session interface {
	CartLines() []Entry
	SetCartLines(lines []Entry)
}

// ProductLookup は表示時に商品を引き直すための窓口
type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}

type Cart struct {
	session  Session
	products ProductLookup
	lines    []Entry
}

// New はセッションの中身からカートを組み立てる
func New(s Session, products ProductLookup) *Cart {
	return &Cart{
		session:  s,
		products: products,
		lines:    Normalize(s.CartLines()),
	}
}

// ParseQuantity は数値でなければ1、負数は0にする
func ParseQuantity(raw string) int64 {
	q, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 1
	}
	if q < 0 {
		return 0
	}
	return q
}

// Normalize はセッションから読んだ行を整える。
// 数量0以下は捨て、同じ商品は最初の行にまとめる。
func Normalize(lines []Entry) []Entry {
	out := make([]Entry, 0, len(lines))
	pos := make(map[int64]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.ProductID <= 0 {
			continue
		}
		if i, ok := pos[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		pos[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (c *Cart) indexOf(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add は数量を加算、overrideなら置き換える。結果が0以下なら行を消す。
func (c *Cart) Add(p model.Product, quantity int64, override bool) {
	if quantity < 0 {
		quantity = 0
	}

	i := c.indexOf(p.ID)
	if i < 0 {
		c.lines = append(c.lines, Entry{ProductID: p.ID, Quantity: 0, UnitPrice: p.Price})
		i = len(c.lines) - 1
	}

	if override {
		c.lines[i].Quantity = quantity
	} else {
		c.lines[i].Quantity += quantity
	}

	if c.lines[i].Quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	c.save()
}

// Remove は行を消す。無ければ何もしない。
func (c *Cart) Remove(productID int64) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.save()
}

// Items は呼ぶたびに商品を引き直す。消えた商品の行は飛ばす。
func (c *Cart) Items(ctx context.Context) ([]Item, error) {
	if len(c.lines) == 0 {
		return []Item{}, nil
	}

	ids := make([]int64, 0, len(c.lines))
	for _, l := range c.lines {
		ids = append(ids, l.ProductID)
	}
	products, err := c.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(c.lines))
	for _, l := range c.lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		items = append(items, Item{
			Product:    p,
			Quantity:   l.Quantity,
			Price:      l.UnitPrice,
			TotalPrice: l.Subtotal(),
		})
	}
	return items, nil
}

// Len は数量の合計
func (c *Cart) Len() int64 {
	var n int64
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice はスナップショット価格での合計
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines は行のコピーを返す
func (c *Cart) Lines() []Entry {
	out := make([]Entry, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Clear() {
	c.lines = nil
	c.save()
}

func (c *Cart) save() {
	c.session.SetCartLines(c.Lines())
}
