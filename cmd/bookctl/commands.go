package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ariefcatur/go-table-booking/internal/api"
	"github.com/ariefcatur/go-table-booking/internal/app"
	"github.com/ariefcatur/go-table-booking/internal/booking"
	"github.com/ariefcatur/go-table-booking/internal/session"
)

const usage = `usage: bookctl <command> [flags]

commands:
  login           -u USER -p PASSWORD
  signup          -u USER -e EMAIL -p PASSWORD
  logout
  whoami
  menu            [-category NAME]
  book            -name -phone -date YYYY-MM-DD -time HH:MM -people N [-note] -dish ID[:QTY]...
  history
  edit            -id ID [-date] [-time] [-people] [-note] [-add ID]... [-remove ID]... [-qty ID=N]...
  pay             -id ID
  delete          -id ID
  profile
  profile-update  [-username] [-email]
`

var errUsage = errors.New(strings.TrimRight(usage, "\n"))

type cli struct {
	svc  *app.Service
	sess *session.Manager
	out  io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "signup":
		return c.signup(ctx, rest)
	case "logout":
		if err := c.svc.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "signed out")
		return nil
	case "whoami":
		st := c.sess.Current(ctx)
		if !st.LoggedIn {
			fmt.Fprintln(c.out, "not signed in")
			return nil
		}
		fmt.Fprintf(c.out, "signed in as %s\n", st.Role)
		return nil
	case "menu":
		return c.menu(ctx, rest)
	case "book":
		return c.book(ctx, rest)
	case "history":
		return c.history(ctx)
	case "edit":
		return c.edit(ctx, rest)
	case "pay":
		return c.pay(ctx, rest)
	case "delete":
		return c.delete(ctx, rest)
	case "profile":
		p, err := c.svc.Profile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "username: %s\nemail:    %s\n", p.Username, p.Email)
		return nil
	case "profile-update":
		return c.profileUpdate(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(c.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%w", cmd, errUsage)
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *pass == "" {
		return errors.New("login needs -u and -p")
	}
	st, err := c.svc.Login(ctx, *user, *pass)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s\n", st.Role)
	return nil
}

func (c *cli) signup(ctx context.Context, args []string) error {
	fs := newFlags("signup")
	user := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *email == "" || *pass == "" {
		return errors.New("signup needs -u, -e and -p")
	}
	if err := c.svc.Signup(ctx, *user, *email, *pass); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "account created, you can sign in now")
	return nil
}

func (c *cli) menu(ctx context.Context, args []string) error {
	fs := newFlags("menu")
	category := fs.String("category", booking.CategoryAll, "only show this category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	items, err := c.svc.Menu(ctx, *category)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, it := range items {
		price, _ := it.Price.Decimal()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.Category, booking.FormatVND(price))
	}
	return tw.Flush()
}

// dishList collects repeatable -dish / -add values of the form ID[:QTY].
type dishList []string

func (d *dishList) String() string { return strings.Join(*d, ",") }
func (d *dishList) Set(v string) error {
	*d = append(*d, v)
	return nil
}

// parseDish splits "ID[:QTY]"; the quantity text is left for Selection to
// validate.
func parseDish(spec string) (id, qty string) {
	id, qty, _ = strings.Cut(strings.TrimSpace(spec), ":")
	return id, qty
}

// parseQty splits "ID=N" for edit -qty.
func parseQty(spec string) (id, qty string, err error) {
	id, qty, ok := strings.Cut(spec, "=")
	if !ok || id == "" {
		return "", "", fmt.Errorf("bad -qty %q, want ID=N", spec)
	}
	return id, qty, nil
}

func addDishes(sel *booking.Selection, menu []booking.MenuItem, specs []string) error {
	for _, spec := range specs {
		id, qty := parseDish(spec)
		item, ok := booking.FindMenuItem(menu, id)
		if !ok {
			return fmt.Errorf("dish %q is not on the menu", id)
		}
		if err := sel.Add(item); err != nil {
			return fmt.Errorf("dish %s: %w", id, err)
		}
		if qty != "" {
			if err := sel.SetQuantity(id, qty); err != nil {
				return fmt.Errorf("dish %s: %w", id, err)
			}
		}
	}
	return nil
}

func (c *cli) book(ctx context.Context, args []string) error {
	fs := newFlags("book")
	var d booking.Draft
	var dishes dishList
	fs.StringVar(&d.Name, "name", "", "customer name")
	fs.StringVar(&d.Phone, "phone", "", "phone number")
	fs.StringVar(&d.Date, "date", "", "YYYY-MM-DD")
	fs.StringVar(&d.Time, "time", "", "HH:MM")
	fs.IntVar(&d.People, "people", 0, "party size")
	fs.StringVar(&d.Note, "note", "", "note for the restaurant")
	fs.Var(&dishes, "dish", "ID[:QTY], repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel := booking.NewSelection()
	if len(dishes) > 0 {
		menu, err := c.svc.Menu(ctx, booking.CategoryAll)
		if err != nil {
			return err
		}
		if err := addDishes(sel, menu, dishes); err != nil {
			return err
		}
	}

	created, err := c.svc.CreateBooking(ctx, d, sel)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "booking placed, total %s\n", booking.FormatVND(sel.Total()))
	if created != nil {
		fmt.Fprintf(c.out, "id: %s\n", created.ID)
	}
	return nil
}

func displayTotal(b booking.Booking) string {
	if d, ok := b.TotalAmount.Decimal(); ok {
		return booking.FormatVND(d)
	}
	return booking.FormatVND(booking.Total(b.SelectedDishes))
}

func (c *cli) history(ctx context.Context) error {
	bs, err := c.svc.History(ctx)
	if err != nil {
		return err
	}
	if len(bs) == 0 {
		fmt.Fprintln(c.out, "no bookings yet")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tPEOPLE\tDISHES\tTOTAL\tSTATUS")
	for _, b := range bs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			b.ID, booking.NormalizeDate(b.Date), b.Time, b.People, len(b.SelectedDishes), displayTotal(b), b.Status())
	}
	return tw.Flush()
}

func (c *cli) findBooking(ctx context.Context, id string) (booking.Booking, error) {
	if id == "" {
		return booking.Booking{}, errors.New("missing -id")
	}
	bs, err := c.svc.History(ctx)
	if err != nil {
		return booking.Booking{}, err
	}
	b, ok := booking.FindBooking(bs, id)
	if !ok {
		return booking.Booking{}, app.ErrBookingNotFound
	}
	return b, nil
}

func (c *cli) edit(ctx context.Context, args []string) error {
	fs := newFlags("edit")
	id := fs.String("id", "", "booking id")
	date := fs.String("date", "", "YYYY-MM-DD")
	tm := fs.String("time", "", "HH:MM")
	people := fs.Int("people", 0, "party size")
	note := fs.String("note", "", "note")
	var add, remove, qty dishList
	fs.Var(&add, "add", "ID[:QTY], repeatable")
	fs.Var(&remove, "remove", "ID, repeatable")
	fs.Var(&qty, "qty", "ID=N, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := c.findBooking(ctx, *id)
	if err != nil {
		return err
	}
	if b.IsPaid {
		return app.ErrBookingPaid
	}

	d := b.Draft()
	d.Date = booking.NormalizeDate(d.Date)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "date":
			d.Date = *date
		case "time":
			d.Time = *tm
		case "people":
			d.People = *people
		case "note":
			d.Note = *note
		}
	})

	menu, err := c.svc.Menu(ctx, booking.CategoryAll)
	if err != nil {
		return err
	}
	sel := booking.NewSelection(booking.AttachMenu(b.SelectedDishes, menu)...)
	for _, rid := range remove {
		if !sel.Remove(rid) {
			return fmt.Errorf("dish %s: %w", rid, booking.ErrNotSelected)
		}
	}
	if err := addDishes(sel, menu, add); err != nil {
		return err
	}
	for _, spec := range qty {
		qid, n, err := parseQty(spec)
		if err != nil {
			return err
		}
		if err := sel.SetQuantity(qid, n); err != nil {
			return fmt.Errorf("dish %s: %w", qid, err)
		}
	}

	saved, err := c.svc.SaveBooking(ctx, b, d, sel)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "booking %s saved, total %s\n", saved.ID, displayTotal(saved))
	return nil
}

func (c *cli) pay(ctx context.Context, args []string) error {
	fs := newFlags("pay")
	id := fs.String("id", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := c.findBooking(ctx, *id)
	if err != nil {
		return err
	}
	paid, err := c.svc.Pay(ctx, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "booking %s: %s, total %s\n", paid.ID, paid.Status(), displayTotal(paid))
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	fs := newFlags("delete")
	id := fs.String("id", "", "booking id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := c.findBooking(ctx, *id)
	if err != nil {
		return err
	}
	if err := c.svc.Delete(ctx, b); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "booking %s deleted\n", b.ID)
	return nil
}

func (c *cli) profileUpdate(ctx context.Context, args []string) error {
	fs := newFlags("profile-update")
	username := fs.String("username", "", "new username")
	email := fs.String("email", "", "new email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cur, err := c.svc.Profile(ctx)
	if err != nil {
		return err
	}
	if *username != "" {
		cur.Username = *username
	}
	if *email != "" {
		cur.Email = *email
	}
	p, err := c.svc.UpdateProfile(ctx, cur)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "profile saved: %s <%s>\n", p.Username, p.Email)
	return nil
}

// notice turns an error into the one-line message the user sees.
func notice(err error) string {
	var apiErr *api.APIError
	var fieldErr *booking.FieldError
	switch {
	case errors.Is(err, session.ErrNoCredential):
		return "please sign in first (bookctl login)"
	case errors.Is(err, app.ErrBookingPaid):
		return "this booking is already paid and can no longer be changed"
	case errors.Is(err, app.ErrBookingNotFound):
		return "booking not found in your history"
	case errors.Is(err, booking.ErrZeroQuantity):
		return "every selected dish needs a quantity of at least 1"
	case errors.Is(err, booking.ErrFractionalQuantity):
		return "every selected dish needs a whole-number quantity"
	case errors.Is(err, booking.ErrInvalidQuantity):
		return "quantity must be a whole number"
	case errors.As(err, &fieldErr):
		return fieldErr.Error()
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "server: " + apiErr.Message
		}
		return "server error " + strconv.Itoa(apiErr.StatusCode)
	default:
		return err.Error()
	}
}
