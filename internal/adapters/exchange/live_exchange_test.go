package exchange

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/axionnode/CryptoRadar/internal/core/domain"
	"github.com/axionnode/CryptoRadar/internal/core/port"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testWSServer struct {
	*httptest.Server
	requests chan *http.Request
	received chan []byte
	conns    atomic.Int32
}

// startTestWSServer upgrades every request, forwards client frames to
// received and writes frames. With repeat set it keeps writing them until the
// client goes away. dropFirst closes the first connection right after upgrade.
func startTestWSServer(t *testing.T, frames []string, repeat, dropFirst bool) *testWSServer {
	t.Helper()

	s := &testWSServer{
		requests: make(chan *http.Request, 16),
		received: make(chan []byte, 16),
	}
	upgrader := websocket.Upgrader{}

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case s.requests <- r:
		default:
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if n := s.conns.Add(1); dropFirst && n == 1 {
			return
		}

		go func() {
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					return
				}
				select {
				case s.received <- msg:
				default:
				}
			}
		}()

		for {
			for _, f := range frames {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
					return
				}
			}
			if !repeat {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}

		// hold the connection open until the client leaves
		for {
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testWSServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

type recorder struct {
	prices       chan domain.PriceRecord
	connected    atomic.Int32
	disconnected chan error
}

func newRecorder() *recorder {
	return &recorder{
		prices:       make(chan domain.PriceRecord, 1024),
		disconnected: make(chan error, 16),
	}
}

func (r *recorder) handlers() port.FeedHandlers {
	return port.FeedHandlers{
		OnPrice: func(p domain.PriceRecord) {
			select {
			case r.prices <- p:
			default:
			}
		},
		OnConnected:    func() { r.connected.Add(1) },
		OnDisconnected: func(err error) { r.disconnected <- err },
	}
}

func waitPrice(t *testing.T, r *recorder) domain.PriceRecord {
	t.Helper()
	select {
	case got := <-r.prices:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for price record")
	}
	return domain.PriceRecord{}
}

func TestBinance_CombinedStreamURLAndTicker(t *testing.T) {
	frame := `{"stream":"btcusdt@ticker","data":{"e":"24hrTicker","s":"BTCUSDT","c":"64000.5"}}`
	srv := startTestWSServer(t, []string{frame}, false, false)

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := NewBinance(Options{URL: srv.wsURL(), Now: func() time.Time { return fixed }}, testLogger())
	rec := newRecorder()
	stop := e.Start(rec.handlers())
	defer stop()

	got := waitPrice(t, rec)
	want := domain.PriceRecord{Exchange: domain.Binance, Symbol: domain.BTC, Price: 64000.5, ObservedAt: fixed}
	if got != want {
		t.Errorf("unexpected record: got %+v, want %+v", got, want)
	}

	req := <-srv.requests
	if req.URL.Path != "/stream" {
		t.Errorf("path = %q, want /stream", req.URL.Path)
	}
	streams := strings.Split(req.URL.Query().Get("streams"), "/")
	if len(streams) != len(domain.Assets) || streams[0] != "btcusdt@ticker" {
		t.Errorf("unexpected streams %v", streams)
	}
	if n := rec.connected.Load(); n != 1 {
		t.Errorf("OnConnected called %d times, want 1", n)
	}
	if !e.IsConnected() {
		t.Error("expected feed to report connected")
	}
}

func TestCoinbase_SubscribesAndIgnoresAcks(t *testing.T) {
	frames := []string{
		`{"type":"subscriptions","channels":[{"name":"ticker","product_ids":["BTC-USDT"]}]}`,
		`{"type":"heartbeat","product_id":"BTC-USDT"}`,
		`{"type":"ticker","product_id":"ETH-USDT","price":"3000.25"}`,
	}
	srv := startTestWSServer(t, frames, false, false)

	e := NewCoinbase(Options{URL: srv.wsURL()}, testLogger())
	rec := newRecorder()
	stop := e.Start(rec.handlers())
	defer stop()

	got := waitPrice(t, rec)
	if got.Exchange != domain.Coinbase || got.Symbol != domain.ETH || got.Price != 3000.25 {
		t.Errorf("unexpected record %+v", got)
	}

	select {
	case extra := <-rec.prices:
		t.Errorf("ack produced a record: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case msg := <-srv.received:
		var sub coinbaseSubscribe
		if err := json.Unmarshal(msg, &sub); err != nil {
			t.Fatalf("bad subscribe frame: %v", err)
		}
		if sub.Type != "subscribe" || len(sub.Channels) != 1 || sub.Channels[0] != "ticker" {
			t.Errorf("unexpected subscribe %+v", sub)
		}
		if len(sub.ProductIDs) != len(domain.Assets) || sub.ProductIDs[0] != "BTC-USDT" {
			t.Errorf("unexpected product ids %v", sub.ProductIDs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe frame received")
	}
}

func TestOKX_SubscribesAndParsesTickers(t *testing.T) {
	frames := []string{
		`{"event":"subscribe","arg":{"channel":"tickers","instId":"SOL-USDT"}}`,
		`{"arg":{"channel":"tickers","instId":"SOL-USDT"},"data":[{"instId":"SOL-USDT","last":"145.12"}]}`,
	}
	srv := startTestWSServer(t, frames, false, false)

	e := NewOKX(Options{URL: srv.wsURL()}, testLogger())
	rec := newRecorder()
	stop := e.Start(rec.handlers())
	defer stop()

	got := waitPrice(t, rec)
	if got.Exchange != domain.OKX || got.Symbol != domain.SOL || got.Price != 145.12 {
		t.Errorf("unexpected record %+v", got)
	}

	msg := <-srv.received
	var sub okxSubscribe
	if err := json.Unmarshal(msg, &sub); err != nil {
		t.Fatalf("bad subscribe frame: %v", err)
	}
	if sub.Op != "subscribe" || len(sub.Args) != len(domain.Assets) {
		t.Fatalf("unexpected subscribe %+v", sub)
	}
	if sub.Args[0] != (okxArg{Channel: "tickers", InstID: "BTC-USDT"}) {
		t.Errorf("unexpected first arg %+v", sub.Args[0])
	}
}

func TestLiveExchange_StopIsIdempotentAndSilent(t *testing.T) {
	frame := `{"e":"24hrTicker","s":"ETHUSDT","c":"3100"}`
	srv := startTestWSServer(t, []string{frame}, true, false)

	var stopped atomic.Bool
	var late atomic.Int32
	h := port.FeedHandlers{
		OnPrice: func(domain.PriceRecord) {
			if stopped.Load() {
				late.Add(1)
			}
		},
		OnConnected: func() {},
		OnDisconnected: func(error) {
			if stopped.Load() {
				late.Add(1)
			}
		},
	}

	first := make(chan struct{})
	var once sync.Once
	inner := h.OnPrice
	h.OnPrice = func(r domain.PriceRecord) {
		once.Do(func() { close(first) })
		inner(r)
	}

	e := NewBinance(Options{URL: srv.wsURL()}, testLogger())
	stop := e.Start(h)

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for first record")
	}

	stop()
	stopped.Store(true)
	stop()

	time.Sleep(50 * time.Millisecond)
	if n := late.Load(); n != 0 {
		t.Errorf("%d callbacks after stop", n)
	}
	if e.IsConnected() {
		t.Error("feed still reports connected after stop")
	}
}

func TestLiveExchange_DialFailureReportsDisconnect(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	e := NewCoinbase(Options{URL: url}, testLogger())
	rec := newRecorder()
	stop := e.Start(rec.handlers())
	defer stop()

	select {
	case err := <-rec.disconnected:
		if err == nil {
			t.Error("expected a dial error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnected not called")
	}
	if n := rec.connected.Load(); n != 0 {
		t.Errorf("OnConnected called %d times, want 0", n)
	}

	select {
	case err := <-rec.disconnected:
		t.Errorf("unexpected second disconnect without reconnect policy: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLiveExchange_ReconnectsWithBackoff(t *testing.T) {
	frame := `{"e":"24hrTicker","s":"BNBUSDT","c":"590.1"}`
	srv := startTestWSServer(t, []string{frame}, false, true)

	e := NewBinance(Options{
		URL: srv.wsURL(),
		Reconnect: ReconnectPolicy{
			Enabled:      true,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     40 * time.Millisecond,
		},
	}, testLogger())
	rec := newRecorder()
	stop := e.Start(rec.handlers())
	defer stop()

	got := waitPrice(t, rec)
	if got.Symbol != domain.BNB || got.Price != 590.1 {
		t.Errorf("unexpected record %+v", got)
	}
	if n := rec.connected.Load(); n != 2 {
		t.Errorf("OnConnected called %d times, want 2", n)
	}
	select {
	case <-rec.disconnected:
	default:
		t.Error("expected a disconnect before the reconnect")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "64000.5", want: 64000.5},
		{in: "0.000012", want: 0.000012},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "+Inf", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePrice(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePrice(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePrice(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestProtocolParse(t *testing.T) {
	b := &binance{symbols: newSymbolMap(lower)}
	c := &coinbase{symbols: newSymbolMap(dashed)}
	o := &okx{symbols: newSymbolMap(dashed)}

	tests := []struct {
		name    string
		p       protocol
		msg     string
		sym     domain.AssetSymbol
		price   float64
		ok      bool
		wantErr bool
	}{
		{name: "binance raw event", p: b, msg: `{"e":"24hrTicker","s":"XRPUSDT","c":"0.52"}`, sym: domain.XRP, price: 0.52, ok: true},
		{name: "binance other event", p: b, msg: `{"e":"trade","s":"BTCUSDT","p":"1"}`},
		{name: "binance untracked", p: b, msg: `{"e":"24hrTicker","s":"ADAUSDT","c":"0.4"}`},
		{name: "binance bad price", p: b, msg: `{"e":"24hrTicker","s":"BTCUSDT","c":"0"}`, wantErr: true},
		{name: "binance garbage", p: b, msg: `not-json`, wantErr: true},
		{name: "coinbase ticker", p: c, msg: `{"type":"ticker","product_id":"DOGE-USDT","price":"0.15"}`, sym: domain.DOGE, price: 0.15, ok: true},
		{name: "coinbase heartbeat", p: c, msg: `{"type":"heartbeat"}`},
		{name: "coinbase error", p: c, msg: `{"type":"error","message":"bad"}`},
		{name: "okx ticker", p: o, msg: `{"arg":{"channel":"tickers","instId":"LINK-USDT"},"data":[{"instId":"LINK-USDT","last":"14.2"}]}`, sym: domain.LINK, price: 14.2, ok: true},
		{name: "okx ack", p: o, msg: `{"event":"subscribe","arg":{"channel":"tickers","instId":"BTC-USDT"}}`},
		{name: "okx error", p: o, msg: `{"event":"error","code":"60012","msg":"Invalid request"}`, wantErr: true},
		{name: "okx empty data", p: o, msg: `{"arg":{"channel":"tickers","instId":"BTC-USDT"},"data":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, price, ok, err := tt.p.parse([]byte(tt.msg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.ok || sym != tt.sym || price != tt.price {
				t.Errorf("got (%q, %v, %v), want (%q, %v, %v)", sym, price, ok, tt.sym, tt.price, tt.ok)
			}
		})
	}
}

func TestBuild_ReturnsEveryExchangeInOrder(t *testing.T) {
	feeds, err := Build(map[domain.Exchange]Options{
		domain.OKX: {URL: "ws://example.invalid/ws"},
	}, testLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(feeds) != len(domain.Exchanges) {
		t.Fatalf("got %d feeds, want %d", len(feeds), len(domain.Exchanges))
	}
	for i, f := range feeds {
		if f.Name() != domain.Exchanges[i] {
			t.Errorf("feed %d = %s, want %s", i, f.Name(), domain.Exchanges[i])
		}
		if f.IsConnected() {
			t.Errorf("%s connected before Start", f.Name())
		}
	}
	if got := feeds[2].(*LiveExchange).URL; got != "ws://example.invalid/ws" {
		t.Errorf("OKX url = %q", got)
	}
	if got := feeds[0].(*LiveExchange).URL; !strings.HasPrefix(got, binanceURL+"/stream?streams=") {
		t.Errorf("Binance url = %q", got)
	}
}
