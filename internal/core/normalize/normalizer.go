package normalize

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"grocery-planner/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer 事件正規化器
// 把原始購買紀錄的自由文字商品名稱轉成穩定的 product_key，
// 讓大小寫、包裝修飾詞、變音符號不同的同一商品落在同一條時間線上
type Normalizer struct {
	stopTokens map[string]struct{}
}

// NewNormalizer 創建事件正規化器
// stopTokens 為要剔除的修飾詞清單（包裝單位、品質修飾詞等）
func NewNormalizer(stopTokens []string) *Normalizer {
	set := make(map[string]struct{}, len(stopTokens))
	for _, tok := range stopTokens {
		tok = Fold(tok)
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return &Normalizer{stopTokens: set}
}

// Fold 小寫化並去除變音符號
// 分類關鍵字比對前也要經過同一個轉換，兩邊才會一致
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		// 轉換失敗時退回小寫原文，仍然是合法的 key
		return s
	}
	return folded
}

// ProductKey 將原始商品名稱轉成穩定的 product_key
// 純函數：小寫、去變音符號、剔除修飾詞、壓縮空白
func (n *Normalizer) ProductKey(rawName string) string {
	folded := Fold(rawName)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '(' || r == ')'
	})

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".-")
		if f == "" {
			continue
		}
		if _, stop := n.stopTokens[f]; stop {
			continue
		}
		// 純數字欄位是數量描述（如 "2 stk"），不屬於商品身份
		if isNumeric(f) {
			continue
		}
		kept = append(kept, f)
	}

	return strings.Join(kept, " ")
}

// BuildTimelines 將原始購買紀錄整理成各商品的時間線
// 不合法的紀錄（缺名稱、日期為零值、數量非正數）計入 rejected 後跳過，
// 不會讓整批失敗；同商品同日的事件合併為一筆（數量加總）
func (n *Normalizer) BuildTimelines(records []common.RawPurchaseRecord) ([]common.ProductTimeline, int) {
	rejected := 0
	byKey := make(map[string]map[string]*common.PurchaseEvent) // key -> date -> event

	for _, rec := range records {
		if strings.TrimSpace(rec.ProductName) == "" || rec.OccurredOn.IsZero() || rec.Quantity <= 0 {
			rejected++
			common.LogDebug("購買紀錄不合法，已跳過",
				zap.String("code", common.ErrCodeMalformedEvent),
				zap.String("product_name", rec.ProductName),
				zap.Float64("quantity", rec.Quantity),
			)
			continue
		}

		key := n.ProductKey(rec.ProductName)
		if key == "" {
			// 名稱剔除修飾詞後什麼都不剩，同樣視為不合法
			rejected++
			common.LogDebug("商品名稱正規化後為空，已跳過",
				zap.String("code", common.ErrCodeMalformedEvent),
				zap.String("product_name", rec.ProductName),
			)
			continue
		}

		day := rec.OccurredOn.Truncate(24 * time.Hour)
		dateKey := day.Format(common.DateLayout)

		if byKey[key] == nil {
			byKey[key] = make(map[string]*common.PurchaseEvent)
		}
		if ev, exists := byKey[key][dateKey]; exists {
			ev.Quantity += rec.Quantity
		} else {
			byKey[key][dateKey] = &common.PurchaseEvent{
				ProductKey: key,
				OccurredOn: day,
				Quantity:   rec.Quantity,
			}
		}
	}

	timelines := make([]common.ProductTimeline, 0, len(byKey))
	for key, byDate := range byKey {
		events := make([]common.PurchaseEvent, 0, len(byDate))
		for _, ev := range byDate {
			events = append(events, *ev)
		}
		sort.Slice(events, func(i, j int) bool {
			return events[i].OccurredOn.Before(events[j].OccurredOn)
		})
		timelines = append(timelines, common.ProductTimeline{
			ProductKey: key,
			Events:     events,
		})
	}

	// 依 key 排序讓輸出順序穩定，重跑同一批輸入結果完全相同
	sort.Slice(timelines, func(i, j int) bool {
		return timelines[i].ProductKey < timelines[j].ProductKey
	})

	return timelines, rejected
}

// isNumeric 欄位是否只由數字與數量標點組成
func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' && r != '%' {
			return false
		}
	}
	return len(s) > 0
}
