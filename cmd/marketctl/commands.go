package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/session"

	flag "github.com/spf13/pflag"
)

var errUsage = errors.New("invalid arguments, see marketctl --help")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.signUp(ctx, args)
	case "signin":
		return a.signIn(ctx, args)
	case "federated":
		if len(args) != 1 {
			return errUsage
		}
		id, err := a.session.SignInFederated(ctx, args[0])
		if err != nil {
			return err
		}
		return a.printSession(id)
	case "signout":
		return a.session.SignOut(ctx)
	case "me":
		id := a.session.Identity()
		if id == nil {
			return identity.ErrInvalidToken
		}
		return a.printIdentity(id)
	case "meta":
		meta, err := a.api.Meta(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(meta)
	case "list":
		return a.list(ctx, args)
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		l, err := a.api.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return a.printListings([]*domain.Listing{l})
	case "create":
		return a.create(ctx, args)
	case "update":
		return a.update(ctx, args)
	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.api.Delete(ctx, args[0]); err != nil {
			return err
		}
		a.session.Remove(args[0])
		fmt.Println("deleted", args[0])
		return nil
	case "sold":
		return a.transition(ctx, args, func(id string) (*domain.Listing, error) { return a.api.MarkSold(ctx, id) })
	case "approve":
		return a.transition(ctx, args, func(id string) (*domain.Listing, error) {
			return a.api.Moderate(ctx, id, domain.StatusApproved)
		})
	case "reject":
		return a.transition(ctx, args, func(id string) (*domain.Listing, error) {
			return a.api.Moderate(ctx, id, domain.StatusRejected)
		})
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func credentialFlags(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	email := fs.String("email", "", "account e-mail")
	password := fs.String("password", os.Getenv("MARKETCTL_PASSWORD"), "account password")
	return fs, email, password
}

func (a *app) signUp(ctx context.Context, args []string) error {
	fs, email, password := credentialFlags("signup")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.session.SignUp(ctx, *email, *password, *name)
	if err != nil {
		return err
	}
	return a.printSession(id)
}

func (a *app) signIn(ctx context.Context, args []string) error {
	fs, email, password := credentialFlags("signin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := a.session.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	return a.printSession(id)
}

func (a *app) list(ctx context.Context, args []string) error {
	view := session.ViewApproved
	if len(args) > 0 {
		switch args[0] {
		case "approved":
		case "mine":
			view = session.ViewMine
		case "pending":
			view = session.ViewPending
		default:
			return errUsage
		}
	}
	views := a.session.Views()
	if err := views.Refresh(ctx, view); err != nil {
		return err
	}
	items, _ := views.Listings(view)
	return a.printListings(items)
}

func readImage(path string) (domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Image{}, err
	}
	return domain.Image{
		FileName:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.String("title", "", "listing title")
	description := fs.String("description", "", "listing description")
	price := fs.Float64("price", 0, "price")
	category := fs.String("category", string(domain.CategoryOther), "category")
	images := fs.StringArray("image", nil, "image file, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft := domain.Draft{
		Title:       *title,
		Description: *description,
		Price:       *price,
		Category:    domain.Category(*category),
	}
	for _, p := range *images {
		img, err := readImage(p)
		if err != nil {
			return err
		}
		draft.Images = append(draft.Images, img)
	}

	l, err := a.api.Create(ctx, draft)
	if err != nil {
		return err
	}
	a.session.Views().Invalidate(session.ViewMine, session.ViewPending)
	return a.printListings([]*domain.Listing{l})
}

func (a *app) update(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errUsage
	}
	id := args[0]
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	price := fs.Float64("price", 0, "new price")
	category := fs.String("category", "", "new category")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var patch domain.Patch
	if fs.Changed("title") {
		patch.Title = title
	}
	if fs.Changed("description") {
		patch.Description = description
	}
	if fs.Changed("price") {
		patch.Price = price
	}
	if fs.Changed("category") {
		c := domain.Category(*category)
		patch.Category = &c
	}
	if patch.IsEmpty() {
		return errUsage
	}

	l, err := a.api.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	a.session.Views().Invalidate(session.ViewMine, session.ViewPending)
	return a.printListings([]*domain.Listing{l})
}

func (a *app) transition(ctx context.Context, args []string, do func(id string) (*domain.Listing, error)) error {
	if len(args) != 1 {
		return errUsage
	}
	l, err := do(args[0])
	if err != nil {
		return err
	}
	a.session.ApplyStatus(l.ID, l.Status)
	return a.printListings([]*domain.Listing{l})
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printSession(id *identity.Identity) error {
	if a.json {
		return a.printJSON(map[string]interface{}{"token": a.session.Token(), "identity": id})
	}
	if err := a.printIdentity(id); err != nil {
		return err
	}
	fmt.Printf("\nexport MARKETCTL_TOKEN=%s\n", a.session.Token())
	return nil
}

func (a *app) printIdentity(id *identity.Identity) error {
	if a.json {
		return a.printJSON(id)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", id.ID)
	fmt.Fprintf(w, "EMAIL\t%s\n", id.Email)
	fmt.Fprintf(w, "NAME\t%s\n", id.DisplayName)
	fmt.Fprintf(w, "ADMIN\t%t\n", id.IsAdmin)
	return w.Flush()
}

func (a *app) printListings(ls []*domain.Listing) error {
	if a.json {
		return a.printJSON(ls)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tCATEGORY\tSTATUS\tSELLER\tIMAGES")
	for _, l := range ls {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%d\n",
			l.ID, l.Title, l.Price, l.Category.Label(), l.Status, l.SellerName, len(l.Images))
	}
	return w.Flush()
}
