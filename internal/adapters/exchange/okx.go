package exchange

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
)

const okxURL = "wss://ws.okx.com:8443/ws/v5/public"

type okx struct {
	symbols symbolMap
}

type okxArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type okxSubscribe struct {
	Op   string   `json:"op"`
	Args []okxArg `json:"args"`
}

type okxData struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

type okxMsg struct {
	Arg   *okxArg   `json:"arg"`
	Data  []okxData `json:"data"`
	Event string    `json:"event"`
	Code  string    `json:"code"`
	Msg   string    `json:"msg"`
}

func NewOKX(opts Options, logger *slog.Logger) *LiveExchange {
	return newLiveExchange(&okx{symbols: newSymbolMap(dashed)}, okxURL, opts, logger)
}

func (o *okx) name() domain.Exchange { return domain.OKX }

func (o *okx) endpoint(base string) string { return base }

func (o *okx) subscription() any {
	args := make([]okxArg, 0, len(domain.Assets))
	for _, id := range o.symbols.wires() {
		args = append(args, okxArg{Channel: "tickers", InstID: id})
	}
	return okxSubscribe{Op: "subscribe", Args: args}
}

func (o *okx) parse(msg []byte) (domain.AssetSymbol, float64, bool, error) {
	var m okxMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return "", 0, false, fmt.Errorf("json unmarshal error: %w", err)
	}
	if m.Event == "error" {
		return "", 0, false, fmt.Errorf("okx error event code=%s msg=%s", m.Code, m.Msg)
	}
	// subscribe acks and other channels
	if m.Event != "" || m.Arg == nil || m.Arg.Channel != "tickers" || len(m.Data) == 0 {
		return "", 0, false, nil
	}

	d := m.Data[0]
	sym, ok := o.symbols.asset(d.InstID)
	if !ok {
		return "", 0, false, nil
	}
	price, err := parsePrice(d.Last)
	if err != nil {
		return "", 0, false, err
	}
	return sym, price, true, nil
}
