// Command browse is a terminal storefront. It scrolls the catalog with
// incremental loading and keeps the cart in a local cookie jar file, so
// several browse processes share one cart.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cartpage"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/feed"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logger"
)

const help = "j/k scroll  a ID add  + ID / - ID quantity  c cart  q quit"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{Service: "browse", Out: os.Stderr}).Fatal().Err(err).Msg("load config")
	}

	// the screen owns stdout
	log := logger.New(logger.Options{
		Service:    "browse",
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		Out:        os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, err := clients.NewClient("catalog-service", cfg.CatalogURL, &http.Client{Timeout: cfg.UpstreamTimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("catalog client")
	}
	products := catalog.NewService(clients.NewCatalogClient(base), catalog.WithLogger(log))

	store := cart.NewStore(cart.NewFileSlot(cfg.CartFile, cart.SlotName), cart.WithLogger(log))
	vp := feed.NewViewport(cfg.ViewportRows, cfg.ViewportMargin)
	scr := &screen{out: os.Stdout, vp: vp, store: store}

	var f *feed.Feed
	f = feed.New(products, cfg.PageSize,
		feed.WithLogger(log),
		feed.WithOnUpdate(func() {
			vp.SetTotal(f.Len())
			scr.render(f)
		}),
	)
	scr.feed = f

	if err := f.Start(ctx); err != nil {
		log.Error().Err(err).Msg("first page failed")
	}
	f.Bind(ctx, vp)
	defer func() {
		f.Unbind()
		f.Wait()
	}()

	// other processes writing the jar update the badge
	go func() {
		for m := range store.Watch(ctx, cfg.CartPollInterval) {
			scr.setBadge(m.Count())
		}
	}()

	asm := cartpage.NewAssembler(products,
		cartpage.WithConcurrency(cfg.MaxHydrationConcurrency),
		cartpage.WithLogger(log),
	)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	scr.message(help)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := run(ctx, line, scr, store, products, asm); quit {
				return
			}
		}
	}
}

func run(ctx context.Context, line string, scr *screen, store *cart.Store, products *catalog.Service, asm *cartpage.Assembler) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "q":
		return true
	case "j":
		scr.vp.Scroll(1)
		scr.render(scr.feed)
	case "k":
		scr.vp.Scroll(-1)
		scr.render(scr.feed)
	case "c":
		snap, err := cartpage.NewPage(store, asm).Mount(ctx)
		if err != nil {
			scr.message("could not load cart: " + err.Error())
			return false
		}
		scr.renderCart(snap)
	case "a", "+", "-":
		id, err := argID(fields)
		if err != nil {
			scr.message(err.Error())
			return false
		}
		if fields[0] != "-" && store.Load()[id] == 0 {
			if _, err := products.Product(ctx, id); err != nil {
				scr.message(fmt.Sprintf("product %d: %v", id, err))
				return false
			}
		}

		var c cart.Change
		switch fields[0] {
		case "a":
			c, err = store.Add(id)
		case "+":
			c, err = store.Increment(id)
		default:
			c, err = store.Decrement(id)
		}
		if err != nil {
			scr.message(err.Error())
			return false
		}
		scr.setBadge(c.Cart.Count())
		scr.render(scr.feed)
	default:
		scr.message(help)
	}
	return false
}

func argID(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, errors.New("missing product id")
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", fields[1])
	}
	return id, nil
}
