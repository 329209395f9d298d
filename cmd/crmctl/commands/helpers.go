package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/freddy208/crmprospect/internal/constants"
	"github.com/freddy208/crmprospect/internal/logging"
	"github.com/freddy208/crmprospect/pkg/crm"
	"github.com/freddy208/crmprospect/pkg/crmclient"
	"github.com/freddy208/crmprospect/pkg/dashboard"
	"github.com/freddy208/crmprospect/pkg/query"
	"github.com/freddy208/crmprospect/pkg/session"
)

const userAgent = "crmctl"

// runtime is everything one command invocation talks to the API through.
type runtime struct {
	config    *Config
	client    crm.Client
	store     *query.Store
	session   *session.Session
	dashboard *dashboard.Dashboard
	logger    *logging.Logger

	// metrics is only collected with --verbose.
	metrics *crm.MetricsCollector
}

// newRuntime builds the client, query store, session and dashboard from config.
// Cookies saved by a previous login are loaded into the client.
func newRuntime(ctx context.Context, cmd *cobra.Command, config *Config) (*runtime, error) {
	if config.API == "" {
		return nil, constants.ErrNoBaseURLConfigured
	}

	verbose := viper.GetBool("verbose")

	logger := logging.New().
		FromWriter(cmd.ErrOrStderr()).
		Console(true).
		Verbose(verbose).
		Make()

	interceptors := crm.NewInterceptorChain()
	interceptors.AddRequestInterceptor(crm.RequestIDInterceptor())

	var metrics *crm.MetricsCollector

	if verbose {
		metrics = crm.NewMetricsCollector()

		interceptors.AddRequestInterceptor(crm.LoggingInterceptor(logger))
		interceptors.AddRequestInterceptor(crm.MetricsRequestInterceptor(metrics))
		interceptors.AddResponseInterceptor(crm.LoggingResponseInterceptor(logger))
		interceptors.AddResponseInterceptor(crm.MetricsResponseInterceptor(metrics))
	}

	client, err := crmclient.New(ctx, &crm.Config{
		BaseURL:           config.API,
		SessionCookieName: constants.DefaultSessionCookie,
		Cookies:           parseCookies(config.Cookies),
		Debug:             verbose,
		Logger:            logger,
		UserAgent:         userAgent,
		Interceptors:      interceptors,
	})
	if err != nil {
		return nil, err
	}

	cache, err := crm.NewCacheFromConfig(config.Cache.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	store := query.NewStore(query.WithCache(cache), query.WithLogger(logger))
	sess := session.New(client, session.WithStore(store), session.WithLogger(logger))

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &runtime{
		config:  config,
		client:  client,
		store:   store,
		session: sess,
		dashboard: dashboard.New(client, store,
			dashboard.WithSession(sess),
			dashboard.WithLogger(logger),
			dashboard.WithConcurrency(concurrency),
		),
		logger:  logger,
		metrics: metrics,
	}, nil
}

// openSession builds a runtime and resumes the saved session.
func openSession(cmd *cobra.Command) (*runtime, error) {
	rt, err := newRuntime(cmd.Context(), cmd, loadConfig())
	if err != nil {
		return nil, err
	}

	err = rt.session.Init(cmd.Context())
	if err != nil {
		rt.close()

		return nil, rt.explain(err)
	}

	if !rt.session.IsAuthenticated() {
		rt.close()

		return nil, constants.ErrNotLoggedIn
	}

	return rt, nil
}

func (r *runtime) close() {
	r.report()

	err := r.store.Close()
	if err != nil {
		r.logger.Warn("failed to close query store", map[string]interface{}{"error": err.Error()})
	}
}

// report logs per-endpoint call metrics and the query store counters.
func (r *runtime) report() {
	if r.metrics == nil {
		return
	}

	for endpoint, metrics := range r.metrics.Snapshot() {
		r.logger.Debug("api calls", map[string]interface{}{
			"endpoint":    endpoint,
			"requests":    metrics.TotalRequests,
			"errors":      metrics.TotalErrors,
			"avg_latency": metrics.AverageLatency.String(),
		})
	}

	stats := r.store.Stats()
	r.logger.Debug("query cache", map[string]interface{}{
		"hits":          stats.Hits,
		"misses":        stats.Misses,
		"fetches":       stats.Fetches,
		"dedups":        stats.Dedups,
		"invalidations": stats.Invalidations,
	})
}

// saveSession stores the session cookies held by the client.
func (r *runtime) saveSession() error {
	r.config.Cookies = formatCookies(r.client.Cookies())

	err := saveConfigStruct(r.config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// explain turns a failure into the message a user should see.
func (r *runtime) explain(err error) error {
	if err == nil {
		return nil
	}

	note := r.dashboard.Notify(err)

	return &commandError{note: note}
}

type commandError struct {
	note dashboard.Notification
}

func (e *commandError) Error() string {
	if len(e.note.Details) > 0 && e.note.Kind == dashboard.KindInvalid {
		return fmt.Sprintf("%s (%s)", e.note.Message, strings.Join(e.note.Details, ", "))
	}

	if e.note.Kind == dashboard.KindUnauthenticated {
		return e.note.Message + " Run 'crmctl login'."
	}

	return e.note.Message
}

func (e *commandError) Unwrap() error {
	return e.note.Err
}

// unwrap unwraps a mutation result for a command.
func unwrap[T any](rt *runtime, res query.Result[T]) (T, error) {
	value, err := res.Get()
	if err != nil {
		var zero T

		return zero, rt.explain(err)
	}

	return value, nil
}

func parseCookies(saved []string) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(saved))

	for _, raw := range saved {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || name == "" {
			continue
		}

		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}

	return cookies
}

func formatCookies(cookies []*http.Cookie) []string {
	saved := make([]string, 0, len(cookies))

	for _, cookie := range cookies {
		saved = append(saved, cookie.Name+"="+cookie.Value)
	}

	return saved
}

// printer renders command output in the configured format.
type printer struct {
	out    io.Writer
	format string
}

func newPrinter(cmd *cobra.Command) *printer {
	return &printer{
		out:    cmd.OutOrStdout(),
		format: viper.GetString("output"),
	}
}

func validOutputFormat(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	}

	return false
}

// print encodes value as JSON or YAML, or calls fill to build a table.
func (p *printer) print(value interface{}, fill func(table *tablewriter.Table)) error {
	switch p.format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(p.out)
		encoder.SetIndent("", strings.Repeat(" ", constants.DefaultJSONIndent))

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(p.out)
		encoder.SetIndent(constants.DefaultJSONIndent)

		err := encoder.Encode(value)
		if err != nil {
			return err
		}

		return encoder.Close()
	case constants.FormatTable, "":
		table := tablewriter.NewWriter(p.out)
		fill(table)

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, p.format)
	}
}

func (p *printer) isTable() bool {
	return p.format == constants.FormatTable || p.format == ""
}

// list prints rows under header, or "No <noun> found" when there are none.
func (p *printer) list(value interface{}, noun string, header []string, rows [][]string) error {
	if len(rows) == 0 && p.isTable() {
		_, _ = fmt.Fprintf(p.out, "No %s found\n", noun)

		return nil
	}

	return p.print(value, func(table *tablewriter.Table) {
		table.Header(toCells(header)...)

		for _, row := range rows {
			_ = table.Append(toCells(row)...)
		}
	})
}

// properties prints a two-column property table.
func (p *printer) properties(value interface{}, pairs [][2]string) error {
	return p.print(value, func(table *tablewriter.Table) {
		table.Header("Property", "Value")

		for _, pair := range pairs {
			_ = table.Append(pair[0], pair[1])
		}
	})
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, value := range values {
		cells[i] = value
	}

	return cells
}

func valueOrNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return constants.NotAvailable
	}

	return value
}

func derefOrNA(value *string) string {
	if value == nil {
		return constants.NotAvailable
	}

	return valueOrNA(*value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return constants.NotAvailable
	}

	return t.Local().Format(constants.DateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return constants.NotAvailable
	}

	return formatTime(*t)
}

func userName(user *crm.UserSummary) string {
	if user == nil {
		return constants.NotAvailable
	}

	return user.FullName()
}

type enum interface {
	~string
	Valid() bool
}

// parseEnum upper-cases value and checks it against the declared constants.
func parseEnum[E enum](flag, value string) (E, error) {
	parsed := E(strings.ToUpper(strings.TrimSpace(value)))
	if !parsed.Valid() {
		var zero E

		return zero, fmt.Errorf("%w: --%s %q", constants.ErrInvalidFlagValue, flag, value)
	}

	return parsed, nil
}

// parseOptionalEnum is parseEnum for filters, where an empty value means "any".
func parseOptionalEnum[E enum](flag, value string) (E, error) {
	if strings.TrimSpace(value) == "" {
		var zero E

		return zero, nil
	}

	return parseEnum[E](flag, value)
}

// stringFlag returns a pointer to the flag value when the flag was given.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}

	value, _ := cmd.Flags().GetString(name)

	return &value
}

// prompter reads answers from the command input. Secrets are read without echo
// when the input is a terminal.
type prompter struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		cmd:    cmd,
		reader: bufio.NewReader(cmd.InOrStdin()),
	}
}

func (p *prompter) line(label string) (string, error) {
	_, _ = fmt.Fprint(p.cmd.ErrOrStderr(), label)

	answer, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

func (p *prompter) secret(label string) (string, error) {
	file, ok := p.cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return p.line(label)
	}

	_, _ = fmt.Fprint(p.cmd.ErrOrStderr(), label)

	secret, err := term.ReadPassword(int(file.Fd()))

	_, _ = fmt.Fprintln(p.cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(secret), nil
}
