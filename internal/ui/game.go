package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"cryptotracker/internal/presentation"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/examples/resources/fonts"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rs/zerolog/log"
	"github.com/temidaradev/esset/v2"
)

const glyphsToPreload = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789.,:/$%#+- "
const baseFontSize = 12

var (
	backgroundColor = color.RGBA{25, 25, 25, 255}
	panelColor      = color.RGBA{50, 50, 50, 255}
	selectedRowBg   = color.RGBA{45, 60, 80, 255}
	textColor       = color.RGBA{255, 255, 255, 255}
	mutedColor      = color.RGBA{150, 150, 150, 255}
	headerColor     = color.RGBA{200, 200, 200, 255}
	upColor         = color.RGBA{0, 255, 0, 255}
	downColor       = color.RGBA{255, 0, 0, 255}
	markerColor     = color.RGBA{255, 255, 0, 255}
	toastBg         = color.RGBA{70, 70, 70, 230}
)

// CoinListScreen is what the game needs from the coin list controller.
type CoinListScreen interface {
	SubscribeState() *presentation.Subscription[presentation.CoinListState]
	Events() *presentation.EventChannel[presentation.CoinListEvent]
	OnAction(action presentation.CoinListAction)
	ResetEvents()
}

// Game renders coin list snapshots and turns input into controller actions.
type Game struct {
	screen    CoinListScreen
	state     presentation.CoinListState
	stateSub  *presentation.Subscription[presentation.CoinListState]
	lifecycle *presentation.Lifecycle
	toast     toast

	fontFace           text.Face
	physicalLineHeight float64
	deviceScale        float64
	solidColorImage    *ebiten.Image
	scroll             float64
	layout             screenLayout
}

// NewGame loads the font for deviceScale and starts observing screen events
// until ctx is done.
func NewGame(ctx context.Context, screen CoinListScreen, deviceScale float64) (*Game, error) {
	scaledFontSize := baseFontSize * deviceScale
	fontFace, err := esset.GetFont(fonts.MPlus1pRegular_ttf, int(scaledFontSize))
	if err != nil {
		return nil, fmt.Errorf("font could not be loaded with scaled size %f: %w", scaledFontSize, err)
	}

	log.Debug().Msg("glyph caching")
	tempImage := ebiten.NewImage(1, 1)
	text.Draw(tempImage, glyphsToPreload, fontFace, &text.DrawOptions{})

	physicalLineHeight := scaledFontSize*1.5 + 5.0*deviceScale

	g := newGame(screen, fontFace, deviceScale, physicalLineHeight)
	go presentation.ObserveAsEvents(ctx, g.lifecycle, screen.Events(), g.onEvent)
	return g, nil
}

func newGame(screen CoinListScreen, fontFace text.Face, deviceScale, lineHeight float64) *Game {
	sub := screen.SubscribeState()
	return &Game{
		screen:             screen,
		state:              <-sub.C(),
		stateSub:           sub,
		lifecycle:          presentation.NewLifecycle(),
		fontFace:           fontFace,
		physicalLineHeight: lineHeight,
		deviceScale:        deviceScale,
	}
}

// onEvent runs on the observer goroutine.
func (g *Game) onEvent(event presentation.CoinListEvent) {
	switch e := event.(type) {
	case presentation.ErrorEvent:
		g.screen.ResetEvents()
		g.toast.show(e.Message(), time.Now())
	case presentation.NothingEvent:
	}
}

// Close stops the state subscription.
func (g *Game) Close() {
	g.stateSub.Close()
}

func (g *Game) initSolidColorImage() {
	if g.solidColorImage == nil {
		g.solidColorImage = ebiten.NewImage(1, 1)
		g.solidColorImage.Fill(color.White)
	}
}

// pollState keeps the newest snapshot published since the last frame.
func (g *Game) pollState() {
	for {
		select {
		case s, ok := <-g.stateSub.C():
			if !ok {
				return
			}
			g.state = s
		default:
			return
		}
	}
}

func (g *Game) Update() error {
	if ebiten.IsFocused() {
		g.lifecycle.Start()
	} else {
		g.lifecycle.Stop()
	}

	g.pollState()

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 {
		g.scroll = g.layout.clampScroll(g.scroll-wheelY*g.physicalLineHeight, len(g.state.Coins))
	}

	if g.state.SelectedCoin != nil &&
		(inpututil.IsKeyJustPressed(ebiten.KeyEscape) ||
			inpututil.IsKeyJustPressed(ebiten.KeyBackspace) ||
			inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight)) {
		g.screen.OnAction(presentation.Back{})
		return nil
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && !g.state.IsLoading {
		mx, my := ebiten.CursorPosition()
		if i, ok := g.layout.rowAt(mx, my, g.scroll, len(g.state.Coins)); ok {
			coin := g.state.Coins[i]
			log.Debug().Str("coin", coin.ID).Int("row", i).Msg("coin clicked")
			g.screen.OnAction(presentation.CoinSelected{Coin: coin})
		}
	}

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.initSolidColorImage()
	screen.Fill(backgroundColor)

	if g.state.IsLoading {
		g.drawCentered(screen, "Loading...", g.layout.listRect(), mutedColor)
	} else {
		g.drawList(screen)
	}
	g.drawDetail(screen)
	g.drawToast(screen)
}

func (g *Game) drawList(screen *ebiten.Image) {
	list := g.layout.listRect()
	if len(g.state.Coins) == 0 {
		g.drawCentered(screen, "No coins.", list, mutedColor)
		return
	}

	first, last := g.layout.visibleRows(g.scroll, len(g.state.Coins))
	x := float64(list.Min.X) + g.layout.padding()
	for i := first; i < last; i++ {
		coin := g.state.Coins[i]
		y := g.layout.rowY(i, g.scroll)

		if g.state.IsSelected(coin.ID) {
			vector.DrawFilledRect(screen, float32(list.Min.X), float32(y), float32(list.Dx()), float32(g.physicalLineHeight), selectedRowBg, false)
		}
		esset.DrawText(screen, rowText(coin), 0, x, y, g.fontFace, changeColor(coin.ChangePercent24Hr.Value))
	}
}

func (g *Game) drawDetail(screen *ebiten.Image) {
	detail := g.layout.detailRect()
	chartRect := g.layout.chartRect()
	vector.DrawFilledRect(screen, float32(chartRect.Min.X), float32(chartRect.Min.Y), float32(chartRect.Dx()), float32(chartRect.Dy()), panelColor, false)

	selected := g.state.SelectedCoin
	if selected == nil {
		g.drawCentered(screen, "Click a coin to see chart.", chartRect, mutedColor)
		return
	}

	x := float64(chartRect.Min.X)
	y := float64(detail.Min.Y) + g.layout.padding()
	esset.DrawText(screen, fmt.Sprintf("%s (%s)", selected.Name, selected.Symbol), 0, x, y, g.fontFace, headerColor)
	y += g.physicalLineHeight
	esset.DrawText(screen, "$"+selected.PriceUsd.Formatted, 0, x, y, g.fontFace, textColor)
	y += g.physicalLineHeight
	esset.DrawText(screen, fmt.Sprintf("%+.2f%% (24h)", selected.ChangePercent24Hr.Value), 0, x, y, g.fontFace, changeColor(selected.ChangePercent24Hr.Value))
	y += g.physicalLineHeight
	esset.DrawText(screen, "Market cap $"+selected.MarketCapUsd.Formatted, 0, x, y, g.fontFace, mutedColor)

	history := selected.CoinPriceHistory
	switch len(history) {
	case 0:
		g.drawCentered(screen, "Loading history...", chartRect, mutedColor)
	case 1:
		p := projectPoints(history, chartRect)[0]
		vector.DrawFilledCircle(screen, p.X, p.Y, 3.0*float32(g.deviceScale), markerColor, false)
	default:
		g.drawChart(screen, history, chartRect)
	}
}

func (g *Game) drawChart(screen *ebiten.Image, history []presentation.DataPoint, chartRect image.Rectangle) {
	points := projectPoints(history, chartRect)

	path := &vector.Path{}
	path.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		path.LineTo(p.X, p.Y)
	}

	vs, is := path.AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width: 2.0 * float32(g.deviceScale),
	})

	op := &ebiten.DrawTrianglesOptions{}
	op.ColorM.Scale(0, 200.0/255.0, 255.0/255.0, 1)
	screen.DrawTriangles(vs, is, g.solidColorImage, op)

	lastPoint := points[len(points)-1]
	vector.DrawFilledCircle(screen, lastPoint.X, lastPoint.Y, 3.0*float32(g.deviceScale), markerColor, false)

	minPrice, maxPrice := priceBounds(history)
	labelX := float64(chartRect.Min.X) + 4*g.deviceScale
	esset.DrawText(screen, fmt.Sprintf("%.2f", maxPrice), 0, labelX, float64(chartRect.Min.Y), g.fontFace, mutedColor)
	_, labelHeight := text.Measure("0", g.fontFace, -1)
	esset.DrawText(screen, fmt.Sprintf("%.2f", minPrice), 0, labelX, float64(chartRect.Max.Y)-labelHeight, g.fontFace, mutedColor)

	belowY := float64(chartRect.Max.Y) + 4*g.deviceScale
	firstLabel := axisLabel(history[0].XLabel)
	lastLabel := axisLabel(history[len(history)-1].XLabel)
	lastWidth, _ := text.Measure(lastLabel, g.fontFace, -1)
	esset.DrawText(screen, firstLabel, 0, float64(chartRect.Min.X), belowY, g.fontFace, mutedColor)
	esset.DrawText(screen, lastLabel, 0, float64(chartRect.Max.X)-lastWidth, belowY, g.fontFace, mutedColor)
}

func (g *Game) drawToast(screen *ebiten.Image) {
	message, ok := g.toast.current(time.Now())
	if !ok {
		return
	}
	bounds := screen.Bounds()
	width, height := text.Measure(message, g.fontFace, -1)
	pad := 8 * g.deviceScale
	x := float64(bounds.Min.X) + (float64(bounds.Dx())-width)/2.0
	y := float64(bounds.Max.Y) - height - 3*pad

	vector.DrawFilledRect(screen, float32(x-pad), float32(y-pad), float32(width+2*pad), float32(height+2*pad), toastBg, false)
	esset.DrawText(screen, message, 0, x, y, g.fontFace, textColor)
}

func (g *Game) drawCentered(screen *ebiten.Image, message string, rect image.Rectangle, clr color.RGBA) {
	textWidth, textHeight := text.Measure(message, g.fontFace, -1)
	msgX := float64(rect.Min.X) + (float64(rect.Dx())-textWidth)/2.0
	msgY := float64(rect.Min.Y) + (float64(rect.Dy())-textHeight)/2.0
	esset.DrawText(screen, message, 0, msgX, msgY, g.fontFace, clr)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.layout = newScreenLayout(outsideWidth, outsideHeight, g.deviceScale, g.physicalLineHeight)
	g.scroll = g.layout.clampScroll(g.scroll, len(g.state.Coins))
	return outsideWidth, outsideHeight
}

func rowText(coin presentation.CoinUi) string {
	return fmt.Sprintf("#%-3d %-6s $%s  %+.2f%%", coin.Rank, coin.Symbol, coin.PriceUsd.Formatted, coin.ChangePercent24Hr.Value)
}

func changeColor(change float64) color.RGBA {
	switch {
	case change > 0:
		return upColor
	case change < 0:
		return downColor
	default:
		return textColor
	}
}

func axisLabel(label string) string {
	return strings.ReplaceAll(label, "\n", " ")
}
