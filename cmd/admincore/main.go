// Command admincore drives a create-product flow end to end from the shell:
// it reads a product draft from a JSON file, uploads the given image files as
// one batch, and submits the product to the remote API. Meant as a sample
// driver and smoke tool for the form/upload pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/nextall/admincore/config"
	"github.com/nextall/admincore/internal/app"
	"github.com/nextall/admincore/internal/assetstore"
	"github.com/nextall/admincore/internal/domain"
	"github.com/nextall/admincore/internal/forms"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type draftInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Code        string      `json:"code"`
	SKU         string      `json:"sku"`
	Brand       string      `json:"brand"`
	Price       interface{} `json:"price"`
	PriceSale   interface{} `json:"priceSale"`
	Available   interface{} `json:"available"`
	Status      string      `json:"status"`
	Gender      string      `json:"gender"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags"`
	Sizes       []string    `json:"sizes"`
	Colors      []string    `json:"colors"`
	IsFeatured  bool        `json:"isFeatured"`
}

func main() {
	conf := flag.String("conf", "admincore.yml", "config file path")
	product := flag.String("product", "", "product draft JSON file")
	images := flag.String("images", "", "comma-separated image file paths")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	if err := application.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer application.Release()

	bus := application.Bus()
	_ = bus.OnSuccess(func(msg string) { fmt.Println("ok:", msg) })
	_ = bus.OnError(func(msg string) { fmt.Fprintln(os.Stderr, "error:", msg) })
	_ = bus.OnNavigate(func(path string) { fmt.Println("navigate:", path) })

	if *product == "" {
		fmt.Fprintln(os.Stderr, "missing -product")
		os.Exit(2)
	}

	ctx := context.Background()

	categories, err := application.Catalog().ListSubCategories(ctx)
	if err != nil {
		// Non-fatal: the draft file may carry its own category.
		zap.S().Warnf("list sub-categories: %v", err)
	}

	session, err := application.NewProductForm(categories)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer session.Close()

	if *images != "" {
		files, err := readFiles(strings.Split(*images, ","))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := session.Coordinator.EnqueueUpload(ctx, files); err != nil {
			os.Exit(1)
		}
		fmt.Printf("uploaded %d image(s), progress %d%%\n", len(files), session.Coordinator.Progress())
	}

	if err := fillDraft(session.Controller, *product); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	persisted, err := session.Controller.Submit(ctx)
	if err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "invalid %s: %s\n", field, msg)
			}
		}
		os.Exit(1)
	}
	fmt.Println("created product", persisted.ID)
}

func readFiles(paths []string) ([]assetstore.File, error) {
	files := make([]assetstore.File, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, assetstore.File{Name: filepath.Base(p), Content: data})
	}
	return files, nil
}

func fillDraft(ctrl *forms.Controller, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var in draftInput
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ctrl.Apply(func(d *domain.ProductDraft) {
		d.Name = in.Name
		d.Description = in.Description
		d.Code = in.Code
		d.SKU = in.SKU
		d.Brand = in.Brand
		if in.Price != nil {
			d.Price = cast.ToString(in.Price)
		}
		if in.PriceSale != nil {
			d.PriceSale = cast.ToString(in.PriceSale)
		}
		if in.Status != "" {
			d.Status = in.Status
		}
		if in.Gender != "" {
			d.Gender = in.Gender
		}
		if in.Category != "" {
			d.Category = in.Category
		}
		if in.Available != nil {
			d.Available = cast.ToString(in.Available)
		}
		if len(in.Tags) > 0 {
			d.Tags = in.Tags
		}
		if len(in.Sizes) > 0 {
			d.Sizes = in.Sizes
		}
		if len(in.Colors) > 0 {
			d.Colors = in.Colors
		}
		d.IsFeatured = in.IsFeatured
	})
	return nil
}
