// Package binance implements exchange.Broker on Binance USD-M futures.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"commander/internal/gateway/exchange"
	"commander/internal/logger"
	"commander/internal/market"
	symbolpkg "commander/internal/pkg/symbol"
)

const maxHistoryLimit = 1500

// lotRule is the LOT_SIZE constraint for one symbol.
type lotRule struct {
	Step   decimal.Decimal
	MinQty decimal.Decimal
}

type Broker struct {
	cfg    Config
	client *futures.Client

	lotMu    sync.RWMutex
	lotRules map[string]lotRule
}

var _ exchange.Broker = (*Broker)(nil)

func New(cfg Config) (*Broker, error) {
	final := cfg.withDefaults()
	if final.Sandbox {
		futures.UseTestnet = true
	}
	client := futures.NewClient(final.APIKey, final.APISecret)
	if base := strings.TrimSpace(final.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Broker{
		cfg:      final,
		client:   client,
		lotRules: make(map[string]lotRule),
	}, nil
}

// LoadMarkets fetches the exchange info once at startup and caches the
// LOT_SIZE rules used for quantity rounding.
func (b *Broker) LoadMarkets(ctx context.Context) error {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return fmt.Errorf("loading exchange info failed: %w", err)
	}
	rules := make(map[string]lotRule, len(info.Symbols))
	for _, sym := range info.Symbols {
		rule, ok := parseLotRule(sym.Filters)
		if !ok {
			continue
		}
		rules[sym.Symbol] = rule
	}
	b.lotMu.Lock()
	b.lotRules = rules
	b.lotMu.Unlock()
	logger.Infof("binance: loaded lot rules for %d symbols", len(rules))
	return nil
}

// parseLotRule digs stepSize/minQty out of the raw filter payload.
func parseLotRule(filters []map[string]interface{}) (lotRule, bool) {
	for _, f := range filters {
		raw, err := json.Marshal(f)
		if err != nil {
			continue
		}
		if gjson.GetBytes(raw, "filterType").String() != "LOT_SIZE" {
			continue
		}
		step, err1 := decimal.NewFromString(gjson.GetBytes(raw, "stepSize").String())
		minQty, err2 := decimal.NewFromString(gjson.GetBytes(raw, "minQty").String())
		if err1 != nil || err2 != nil {
			return lotRule{}, false
		}
		return lotRule{Step: step, MinQty: minQty}, true
	}
	return lotRule{}, false
}

func (b *Broker) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	svc := b.client.NewKlinesService().
		Symbol(symbolpkg.ToBinance(symbol)).
		Interval(interval).
		Limit(limit)
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s %s failed: %w", symbol, interval, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

func (b *Broker) Price(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbolpkg.ToBinance(symbol)).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching price for %s failed: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", symbol)
	}
	return parseFloat(prices[0].Price), nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (*exchange.Fill, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("order quantity must be positive")
	}
	side := futures.SideTypeBuy
	if strings.EqualFold(req.Side, "sell") {
		side = futures.SideTypeSell
	}
	svc := b.client.NewCreateOrderService().
		Symbol(symbolpkg.ToBinance(req.Symbol)).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(strconv.FormatFloat(req.Quantity, 'f', -1, 64))
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	resp, err := svc.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("order %s %s qty=%v failed: %w", req.Symbol, req.Side, req.Quantity, err)
	}
	fillPrice := parseFloat(resp.AvgPrice)
	if fillPrice <= 0 {
		// Market orders can report a zero average before the fill settles.
		if p, perr := b.Price(ctx, req.Symbol); perr == nil {
			fillPrice = p
		}
	}
	return &exchange.Fill{
		OrderID:  strconv.FormatInt(resp.OrderID, 10),
		Symbol:   req.Symbol,
		Side:     strings.ToLower(req.Side),
		Quantity: req.Quantity,
		Price:    fillPrice,
		Time:     time.Now().UTC(),
	}, nil
}

func (b *Broker) RoundAmount(symbol string, qty float64) float64 {
	if qty <= 0 {
		return 0
	}
	b.lotMu.RLock()
	rule, ok := b.lotRules[symbolpkg.ToBinance(symbol)]
	b.lotMu.RUnlock()
	if !ok || rule.Step.IsZero() {
		return qty
	}
	amount := decimal.NewFromFloat(qty)
	steps := amount.Div(rule.Step).Floor()
	rounded := steps.Mul(rule.Step)
	if rounded.LessThan(rule.MinQty) {
		return 0
	}
	f, _ := rounded.Float64()
	return f
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
