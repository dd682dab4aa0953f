package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spigell/prodanswer/internal/localstore"
	"github.com/spigell/prodanswer/internal/prodanswer"
	"github.com/spigell/prodanswer/internal/router"
	"github.com/spigell/prodanswer/internal/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dashboardRecent = 5

// view renders a resolved route.
type view func(ctx context.Context, cmd *cobra.Command, a *application, m *router.Match) error

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List application routes",
	Run: withApp(func(_ context.Context, _ *cobra.Command, a *application, _ []string) error {
		routes := a.routes.Routes()

		t := newTable("", "PATH", "NAME", "TITLE")
		for _, r := range routes {
			name, title := r.Name, router.Title(r.Title)
			if r.Redirect != "" {
				name, title = "-> "+r.Redirect, ""
			}
			t.add(r.Path, name, title)
		}
		return a.out.render(routes, t)
	}),
}

var openCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open an application route, e.g. /products/42 or /matching/results/7",
	Args:  cobra.MaximumNArgs(1),
	Run: withApp(func(ctx context.Context, cmd *cobra.Command, a *application, args []string) error {
		path := "/"
		if len(args) > 0 {
			path = args[0]
		}
		return open(ctx, cmd, a, path)
	}),
}

func init() {
	rootCmd.AddCommand(routesCmd, openCmd)
}

func views() map[string]view {
	return map[string]view{
		router.Dashboard:   dashboard,
		router.ProductList: productList,
		router.ProductCreate: func(ctx context.Context, cmd *cobra.Command, a *application, _ *router.Match) error {
			if err := createProduct(ctx, cmd, a); err != nil {
				return err
			}
			a.next(router.ProductDetail, a.products.Products()[0].ID)
			return nil
		},
		router.ProductDetail: func(ctx context.Context, _ *cobra.Command, a *application, m *router.Match) error {
			return showProduct(ctx, a, m.Params["id"])
		},
		router.ProductEdit: func(ctx context.Context, cmd *cobra.Command, a *application, m *router.Match) error {
			return editProduct(ctx, cmd, a, m.Params["id"])
		},
		router.RequirementList: func(ctx context.Context, _ *cobra.Command, a *application, m *router.Match) error {
			if err := a.matching.FetchRequirements(ctx, m.Query); err != nil {
				return err
			}
			return renderRequirements(a, a.matching.Requirements())
		},
		router.RequirementCreate: func(ctx context.Context, cmd *cobra.Command, a *application, _ *router.Match) error {
			if err := createRequirement(ctx, cmd, a); err != nil {
				return err
			}
			a.next(router.MatchResultDetail, a.matching.Requirements()[0].ID)
			return nil
		},
		router.MatchingAnalysis: matchingAnalysis,
		router.MatchResultDetail: func(ctx context.Context, _ *cobra.Command, a *application, m *router.Match) error {
			result, err := a.matching.FetchMatchResults(ctx, m.Params["id"])
			if err != nil {
				return err
			}
			return renderMatchResult(a, result)
		},
		router.EmbeddingSettings: func(ctx context.Context, _ *cobra.Command, a *application, m *router.Match) error {
			return showConfigs(ctx, a, m.Query)
		},
		router.Login: func(ctx context.Context, cmd *cobra.Command, a *application, _ *router.Match) error {
			return login(ctx, cmd, a, nil)
		},
	}
}

func open(ctx context.Context, cmd *cobra.Command, a *application, path string) error {
	m, err := a.routes.Resolve(path)
	if err != nil {
		return err
	}

	render, ok := views()[m.Route.Name]
	if !ok {
		return fmt.Errorf("%w: no view for %s", router.ErrNotFound, m.Route.Name)
	}

	a.logger.Debug("open route", zap.String("path", m.Path), zap.String("name", m.Route.Name), zap.Any("params", m.Params))
	if a.out.format == outputTable {
		fmt.Fprintf(a.out.w, "%s\n\n", m.Title())
	}

	return render(ctx, cmd, a, m)
}

// next logs where the user can continue after an action.
func (a *application) next(name, id string) {
	href, err := a.routes.Href(name, map[string]string{"id": id})
	if err != nil {
		a.logger.Debug("building next route", zap.Error(err))
		return
	}
	a.logger.Info("continue with", zap.String("open", href))
}

func dashboard(ctx context.Context, _ *cobra.Command, a *application, _ *router.Match) error {
	recent := url.Values{"page_size": {itoa(dashboardRecent)}}

	if err := a.products.FetchProducts(ctx, url.Values{"page_size": {"1"}}); err != nil {
		return err
	}
	if err := a.matching.FetchRequirements(ctx, recent); err != nil {
		return err
	}
	a.embeddings.FetchDefaultConfig(ctx)

	history, err := a.local.History(ctx, "", dashboardRecent)
	if err != nil {
		return err
	}

	overview := newTable("Overview")
	overview.add("Products", itoa(a.products.Total()))
	overview.add("Recent requirements", itoa(len(a.matching.Requirements())))
	def := a.embeddings.Default()
	if def != nil {
		overview.add("Default embedding model", def.ModelName)
	}
	overview.add("Generated", utils.CurrentDateTime())

	requirements := newTable("Recent requirements", "ID", "TITLE", "STATUS", "CREATED")
	for _, r := range a.matching.Requirements() {
		requirements.add(r.ID, r.Title, r.Status, when(r.CreatedAt))
	}

	view := struct {
		Products       int                         `json:"products"`
		Requirements   []*prodanswer.Requirement   `json:"requirements"`
		DefaultConfig  *prodanswer.EmbeddingConfig `json:"default_config,omitempty"`
		RecentAnalysis []*localstore.Analysis      `json:"recent_analysis"`
	}{a.products.Total(), a.matching.Requirements(), def, history}

	return a.out.render(view, overview, requirements, historyTable(history))
}

func productList(ctx context.Context, _ *cobra.Command, a *application, m *router.Match) error {
	if err := a.products.FetchProducts(ctx, m.Query); err != nil {
		return err
	}
	return renderProducts(a, a.products.Products(), a.products.Total())
}

// matchingAnalysis lists requirements ready for matching together with the recorded runs.
func matchingAnalysis(ctx context.Context, _ *cobra.Command, a *application, _ *router.Match) error {
	q := url.Values{"status": {prodanswer.RequirementCompleted}}
	if err := a.matching.FetchRequirements(ctx, q); err != nil {
		return err
	}

	history, err := a.local.History(ctx, "", 0)
	if err != nil {
		return err
	}

	ready := a.matching.Requirements()
	t := newTable("Ready for matching", "ID", "TITLE", "ITEMS", "RESULTS")
	for _, r := range ready {
		href, _ := a.routes.Href(router.MatchResultDetail, map[string]string{"id": r.ID})
		t.add(r.ID, r.Title, itoa(r.ItemsCount), href)
	}

	view := map[string]any{"requirements": ready, "history": history}
	return a.out.render(view, t, historyTable(history))
}
