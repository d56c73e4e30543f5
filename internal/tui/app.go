// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/networkhub/internal/client"
	"github.com/markalston/networkhub/internal/feed"
	"github.com/markalston/networkhub/internal/flow"
	"github.com/markalston/networkhub/internal/profile"
	"github.com/markalston/networkhub/internal/search"
	"github.com/markalston/networkhub/internal/session"
	"github.com/markalston/networkhub/internal/tui/debuglog"
	"github.com/markalston/networkhub/internal/tui/feedview"
	"github.com/markalston/networkhub/internal/tui/filepicker"
	"github.com/markalston/networkhub/internal/tui/login"
	"github.com/markalston/networkhub/internal/tui/menu"
	"github.com/markalston/networkhub/internal/tui/people"
	"github.com/markalston/networkhub/internal/tui/pictures"
	"github.com/markalston/networkhub/internal/tui/profileview"
	"github.com/markalston/networkhub/internal/tui/recentfiles"
	"github.com/markalston/networkhub/internal/tui/styles"
	"github.com/markalston/networkhub/internal/tui/toast"
	"github.com/markalston/networkhub/internal/tui/wizard"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenAuthMenu
	ScreenLogin
	ScreenSignup
	ScreenReset
	ScreenDashboard
	ScreenImagePicker
)

// Tab is a section of the signed-in dashboard
type Tab int

const (
	TabFeed Tab = iota
	TabPeople
	TabProfile
)

var tabNames = []string{"Feed", "Find People", "Profile"}

const msgSessionExpired = "Your session has expired. Please sign in again."

// pickerPurpose records what a picked image is for
type pickerPurpose int

const (
	pickPostImage pickerPurpose = iota
	pickAvatar
)

// Config holds what the TUI needs from the command layer
type Config struct {
	Client         *client.Client
	Session        *session.Store
	ConfigDir      string
	PicturesDir    string
	SearchDebounce time.Duration
	Logger         *slog.Logger
}

// App is the root model for the TUI
type App struct {
	client  *client.Client
	session *session.Store
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	send    func(tea.Msg)

	screen     Screen
	tab        Tab
	width      int
	height     int
	epoch      uint64
	lastUpdate time.Time
	lastEmail  string
	spinner    spinner.Model
	toasts     *toast.Stack

	// Signed-out screens
	menu         *menu.Menu
	loginForm    *login.Form
	signupFlow   *flow.Signup
	wizardScreen *wizard.Wizard
	resetFlow    *flow.PasswordReset
	resetModal   *wizard.ResetModal

	// Signed-in features, rebuilt for every session
	feed        *feed.Feed
	search      *search.Search
	editor      *profile.Editor
	feedView    *feedview.View
	peopleView  *people.View
	profileView *profileview.View

	// Image picker
	filePicker  *filepicker.FilePicker
	picking     pickerPurpose
	recentFiles *recentfiles.RecentFiles
	picturesDir string
	debounce    time.Duration
}

// New creates a new TUI application. With a stored credential it starts on
// the loading screen; otherwise it starts on the auth menu without touching
// the network.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = debuglog.Logger()
	}
	debounce := cfg.SearchDebounce
	if debounce <= 0 {
		debounce = search.DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		client:      cfg.Client,
		session:     cfg.Session,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		toasts:      toast.New(),
		signupFlow:  flow.NewSignup(cfg.Client, cfg.Session),
		resetFlow:   flow.NewPasswordReset(cfg.Client),
		recentFiles: recentfiles.New(cfg.ConfigDir),
		picturesDir: cfg.PicturesDir,
		debounce:    debounce,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
		),
	}

	if cfg.Session.HasStoredCredential() {
		a.screen = ScreenLoading
	} else {
		a.screen = ScreenAuthMenu
		a.menu = menu.New()
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	if a.screen == ScreenLoading {
		return tea.Batch(a.spinner.Tick, a.initializeSession())
	}
	if a.menu != nil {
		return a.menu.Init()
	}
	return nil
}

// Close cancels outstanding requests and stops background searches
func (a *App) Close() {
	a.cancel()
	if a.search != nil {
		a.search.Close()
	}
}

// bumpEpoch invalidates results issued by the current screen
func (a *App) bumpEpoch() {
	a.epoch++
}

// stale reports whether a result belongs to a torn-down screen
func (a *App) stale(epoch uint64, kind string) bool {
	if epoch == a.epoch {
		return false
	}
	a.logger.Debug("dropping stale result", "kind", kind, "epoch", epoch, "current", a.epoch)
	return true
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.resize(msg)

	case tea.KeyMsg:
		// Handle global quit
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case spinner.TickMsg:
		if a.screen != ScreenLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case toast.ExpiredMsg:
		a.toasts.Expire(msg.ID)
		return a, nil

	case sessionReadyMsg:
		if a.stale(msg.epoch, "session") {
			return a, nil
		}
		if msg.err != nil {
			a.logger.Warn("session initialization failed", "error", msg.err)
		}
		if a.session.Authenticated() {
			return a, a.enterDashboard()
		}
		return a, a.showMenu()

	case identityResolvedMsg:
		if a.stale(msg.epoch, "identity") {
			return a, nil
		}
		if !msg.ok && !a.session.Authenticated() {
			a.teardownFeatures()
			return a, a.showMenu()
		}
		return a, nil

	// Auth menu
	case menu.SelectedMsg:
		return a.handleMenuSelected(msg)

	// Login
	case login.SubmitMsg:
		a.lastEmail = msg.Email
		return a, a.doLogin(msg.Email, msg.Password)

	case login.CancelledMsg:
		return a, a.showMenu()

	case loginResultMsg:
		return a.handleLoginResult(msg)

	// Signup
	case wizard.RegisterMsg:
		return a, a.doRegister()

	case wizard.VerifyMsg:
		return a, a.doVerify(msg.Code)

	case wizard.CancelledMsg:
		a.signupFlow.Reset()
		return a, a.showMenu()

	case registerResultMsg:
		if a.stale(msg.epoch, "register") || a.wizardScreen == nil {
			return a, nil
		}
		cmd := a.wizardScreen.Settle(msg.err)
		if msg.err == nil {
			return a, tea.Batch(cmd, a.toasts.Success(flow.MsgOTPSent))
		}
		return a, cmd

	case verifyResultMsg:
		if a.stale(msg.epoch, "verify") || a.wizardScreen == nil {
			return a, nil
		}
		cmd := a.wizardScreen.Settle(msg.err)
		if msg.err != nil {
			return a, cmd
		}
		a.signupFlow.Reset()
		return a, tea.Batch(a.enterDashboard(), a.resolveIdentity(), a.toasts.Success(flow.MsgAccountCreated))

	// Password reset
	case wizard.RequestCodeMsg:
		return a, a.doRequestCode()

	case wizard.ResetMsg:
		return a, a.doReset(msg.Code, msg.Password)

	case wizard.ResetCancelledMsg:
		a.resetFlow.Dismiss()
		return a, a.showMenu()

	case resetCodeResultMsg:
		if a.stale(msg.epoch, "reset-code") || a.resetModal == nil {
			return a, nil
		}
		return a, a.resetModal.Settle(msg.err)

	case resetResultMsg:
		if a.stale(msg.epoch, "reset") || a.resetModal == nil {
			return a, nil
		}
		cmd := a.resetModal.Settle(msg.err)
		if msg.err != nil {
			return a, cmd
		}
		return a, tea.Batch(cmd, a.toasts.Success(flow.MsgPasswordReset), a.closeResetAfterDelay())

	case resetClosedMsg:
		if a.stale(msg.epoch, "reset-close") || a.screen != ScreenReset {
			return a, nil
		}
		a.resetFlow.Dismiss()
		return a, a.showMenu()

	// Image picker
	case filepicker.FileSelectedMsg:
		return a.handleFileSelected(msg)

	case filepicker.CancelledMsg:
		a.filePicker = nil
		a.screen = ScreenDashboard
		if a.picking == pickPostImage && a.feedView != nil {
			return a, a.feedView.Reopen()
		}
		return a, nil

	// Feed
	case feedview.RefreshMsg:
		return a, a.loadFeed()

	case feedview.SubmitMsg:
		return a, a.submitPost()

	case feedview.AttachMsg:
		return a, a.openPicker(pickPostImage)

	case feedLoadedMsg:
		if a.stale(msg.epoch, "feed") {
			return a, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, feed.ErrStale) {
				return a, nil
			}
			if client.IsUnauthorized(msg.err) {
				return a, a.expireSession()
			}
			return a, a.toasts.Error(client.UserMessage(msg.err, "Failed to load posts"))
		}
		a.lastUpdate = time.Now()
		return a, nil

	case postResultMsg:
		if a.stale(msg.epoch, "post") {
			return a, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, feed.ErrStale) {
				return a, nil
			}
			if client.IsUnauthorized(msg.err) {
				return a, a.expireSession()
			}
			return a, a.toasts.Error(client.UserMessage(msg.err, "Failed to create post"))
		}
		a.feedView.Posted()
		a.lastUpdate = time.Now()
		return a, a.toasts.Success(feed.MsgPostCreated)

	case imageAttachedMsg:
		if a.stale(msg.epoch, "attach") {
			return a, nil
		}
		if msg.err != nil {
			return a, a.toasts.Error(client.UserMessage(msg.err, "Failed to attach image"))
		}
		return a, nil

	// People
	case people.FollowMsg:
		return a, a.toggleFollow(msg.ID, msg.Name)

	case followResultMsg:
		return a.handleFollowResult(msg)

	case searchUpdatedMsg:
		// Results are read from the search on render
		return a, nil

	// Profile
	case profileview.SaveMsg:
		return a, a.saveProfile()

	case profileview.UploadMsg:
		return a, a.openPicker(pickAvatar)

	case profileSavedMsg:
		if a.stale(msg.epoch, "profile") || a.profileView == nil || errors.Is(msg.err, profile.ErrStale) {
			return a, nil
		}
		cmd := a.profileView.Settle(msg.err)
		if msg.err != nil {
			return a, cmd
		}
		return a, tea.Batch(cmd, a.toasts.Success(profile.MsgProfileUpdated))

	case avatarUploadedMsg:
		if a.stale(msg.epoch, "avatar") || errors.Is(msg.err, profile.ErrStale) {
			return a, nil
		}
		if msg.err != nil {
			return a, a.toasts.Error(client.UserMessage(msg.err, profile.MsgUploadFailed))
		}
		return a, a.toasts.Success(profile.MsgImageUpdated)
	}

	// Forward everything else to the active component (needed for huh form
	// internals and cursor blinking)
	return a.forward(msg)
}

func (a *App) resize(msg tea.WindowSizeMsg) tea.Cmd {
	var cmds []tea.Cmd
	inner := tea.WindowSizeMsg{Width: a.contentWidth(), Height: a.contentHeight()}

	if a.menu != nil {
		_, cmd := a.menu.Update(inner)
		cmds = append(cmds, cmd)
	}
	if a.loginForm != nil {
		_, cmd := a.loginForm.Update(inner)
		cmds = append(cmds, cmd)
	}
	if a.wizardScreen != nil {
		_, cmd := a.wizardScreen.Update(inner)
		cmds = append(cmds, cmd)
	}
	if a.resetModal != nil {
		_, cmd := a.resetModal.Update(inner)
		cmds = append(cmds, cmd)
	}
	if a.filePicker != nil {
		a.filePicker.Update(inner)
	}
	a.resizeTabs()
	return tea.Batch(cmds...)
}

func (a *App) resizeTabs() {
	w, h := a.tabWidth(), a.tabHeight()
	if a.feedView != nil {
		a.feedView.SetSize(w, h)
	}
	if a.peopleView != nil {
		a.peopleView.SetSize(w, h)
	}
	if a.profileView != nil {
		a.profileView.SetWidth(w)
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenLoading:
		if msg.String() == "q" {
			return a, tea.Quit
		}
		return a, nil
	case ScreenAuthMenu:
		return a.updateMenu(msg)
	case ScreenDashboard:
		return a.updateDashboard(msg)
	}
	return a.forward(msg)
}

// forward passes msg to the component that owns the current screen
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenAuthMenu:
		return a.updateMenu(msg)
	case ScreenLogin:
		if a.loginForm == nil {
			return a, nil
		}
		model, cmd := a.loginForm.Update(msg)
		a.loginForm = model.(*login.Form)
		return a, cmd
	case ScreenSignup:
		if a.wizardScreen == nil {
			return a, nil
		}
		model, cmd := a.wizardScreen.Update(msg)
		a.wizardScreen = model.(*wizard.Wizard)
		return a, cmd
	case ScreenReset:
		if a.resetModal == nil {
			return a, nil
		}
		model, cmd := a.resetModal.Update(msg)
		a.resetModal = model.(*wizard.ResetModal)
		return a, cmd
	case ScreenImagePicker:
		if a.filePicker == nil {
			return a, nil
		}
		model, cmd := a.filePicker.Update(msg)
		a.filePicker = model.(*filepicker.FilePicker)
		return a, cmd
	case ScreenDashboard:
		return a, a.updateTab(msg)
	}
	return a, nil
}

func (a *App) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.menu == nil {
		return a, nil
	}
	model, cmd := a.menu.Update(msg)
	a.menu = model.(*menu.Menu)
	return a, cmd
}

func (a *App) handleMenuSelected(msg menu.SelectedMsg) (tea.Model, tea.Cmd) {
	a.logger.Debug("menu selection", "action", msg.Action.String())

	switch msg.Action {
	case menu.ActionSignIn:
		a.bumpEpoch()
		a.loginForm = login.New(a.lastEmail)
		a.screen = ScreenLogin
		return a, a.loginForm.Init()

	case menu.ActionCreateAccount:
		a.bumpEpoch()
		a.signupFlow.Reset()
		a.wizardScreen = wizard.New(a.signupFlow)
		a.wizardScreen.SetWidth(a.contentWidth())
		a.screen = ScreenSignup
		return a, a.wizardScreen.Init()

	case menu.ActionForgotPassword:
		a.bumpEpoch()
		a.resetFlow.Dismiss()
		a.resetModal = wizard.NewReset(a.resetFlow, a.lastEmail)
		a.resetModal.SetWidth(a.contentWidth() - 6)
		a.screen = ScreenReset
		return a, a.resetModal.Init()

	case menu.ActionQuit:
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if a.stale(msg.epoch, "login") || a.loginForm == nil {
		return a, nil
	}

	err := msg.err
	if err == nil {
		err = a.session.Login(msg.resp.AccessToken, msg.resp.User)
	}
	if err != nil {
		a.logger.Debug("sign-in failed", "error", err)
		return a, a.loginForm.Failed(client.UserMessage(err, "Login failed"))
	}

	a.loginForm = nil
	name := msg.resp.User.FirstName
	return a, tea.Batch(a.enterDashboard(), a.resolveIdentity(), a.toasts.Success("Welcome back, "+name+"!"))
}

// showMenu tears down signed-out forms and returns to the auth menu
func (a *App) showMenu() tea.Cmd {
	a.bumpEpoch()
	a.loginForm = nil
	a.wizardScreen = nil
	a.resetModal = nil
	a.menu = menu.New()
	a.menu.Update(tea.WindowSizeMsg{Width: a.contentWidth(), Height: a.contentHeight()})
	a.screen = ScreenAuthMenu
	return a.menu.Init()
}

// enterDashboard builds the signed-in features for the current session
func (a *App) enterDashboard() tea.Cmd {
	a.bumpEpoch()
	a.teardownFeatures()

	a.feed = feed.New(a.client, a.session, a.logger)
	a.search = search.New(a.client, a.session,
		search.WithDebounce(a.debounce),
		search.WithLogger(a.logger),
		search.WithNotify(a.notifySearch),
	)
	a.editor = profile.New(a.client, a.session)
	a.feedView = feedview.New(a.feed)
	a.peopleView = people.New(a.search)
	a.profileView = profileview.New(a.editor, a.session)

	a.menu = nil
	a.loginForm = nil
	a.wizardScreen = nil
	a.resetModal = nil
	a.tab = TabFeed
	a.screen = ScreenDashboard
	a.lastUpdate = time.Time{}
	a.resizeTabs()

	return a.loadFeed()
}

func (a *App) teardownFeatures() {
	if a.search != nil {
		a.search.Close()
	}
	a.feed = nil
	a.search = nil
	a.editor = nil
	a.feedView = nil
	a.peopleView = nil
	a.profileView = nil
	a.filePicker = nil
}

// signOut clears the session and returns to the auth menu
func (a *App) signOut() tea.Cmd {
	a.endSession()
	return tea.Batch(a.showMenu(), a.toasts.Push("Signed out", toast.Info))
}

// expireSession signs out after the server rejected the credential
func (a *App) expireSession() tea.Cmd {
	a.logger.Info("credential rejected by server, signing out")
	a.endSession()
	return tea.Batch(a.showMenu(), a.toasts.Error(msgSessionExpired))
}

func (a *App) endSession() {
	if err := a.session.Logout(); err != nil {
		a.logger.Warn("sign-out failed to clear stored session", "error", err)
	}
	a.teardownFeatures()
	a.lastUpdate = time.Time{}
	a.toasts.Clear()
}

func (a *App) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.capturing() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "o":
			return a, a.signOut()
		case "1":
			return a, a.switchTab(TabFeed)
		case "2":
			return a, a.switchTab(TabPeople)
		case "3":
			return a, a.switchTab(TabProfile)
		case "tab":
			return a, a.switchTab((a.tab + 1) % Tab(len(tabNames)))
		case "shift+tab":
			return a, a.switchTab((a.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
		}
	}
	return a, a.updateTab(msg)
}

func (a *App) switchTab(tab Tab) tea.Cmd {
	a.tab = tab
	if tab == TabFeed && a.feed != nil && a.feed.Stale() && !a.feed.Loading() {
		return a.loadFeed()
	}
	return nil
}

func (a *App) updateTab(msg tea.Msg) tea.Cmd {
	switch a.tab {
	case TabFeed:
		if a.feedView != nil {
			return a.feedView.Update(msg)
		}
	case TabPeople:
		if a.peopleView != nil {
			return a.peopleView.Update(msg)
		}
	case TabProfile:
		if a.profileView != nil {
			return a.profileView.Update(msg)
		}
	}
	return nil
}

// capturing reports whether the active tab is taking typed input
func (a *App) capturing() bool {
	switch a.tab {
	case TabFeed:
		return a.feedView != nil && a.feedView.Capturing()
	case TabPeople:
		return a.peopleView != nil && a.peopleView.Capturing()
	case TabProfile:
		return a.profileView != nil && a.profileView.Capturing()
	}
	return false
}

func (a *App) handleFollowResult(msg followResultMsg) (tea.Model, tea.Cmd) {
	if a.stale(msg.epoch, "follow") {
		return a, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, search.ErrBusy) {
			return a, nil
		}
		if client.IsUnauthorized(msg.err) {
			return a, a.expireSession()
		}
		return a, a.toasts.Error(client.UserMessage(msg.err, search.MsgFollowFailed))
	}
	if msg.generation != a.session.Generation() {
		a.logger.Debug("follow result belongs to a previous session", "name", msg.name)
		return a, nil
	}

	delta := 1
	text := search.MsgFollowing
	if !msg.following {
		delta = -1
		text = search.MsgUnfollowed
	}
	if err := a.session.UpdateIdentity(func(u *client.User) {
		u.FollowingCount = max(0, u.FollowingCount+delta)
	}); err != nil {
		a.logger.Debug("following count not updated", "error", err)
	}
	if msg.name != "" && msg.following {
		text += " " + msg.name
	}
	return a, a.toasts.Success(text)
}

// openPicker shows the image picker for purpose
func (a *App) openPicker(purpose pickerPurpose) tea.Cmd {
	recent, err := a.recentFiles.Load()
	if err != nil {
		a.logger.Debug("recent images unavailable", "error", err)
	}

	var found []pictures.File
	if dir := pictures.FindDir(a.picturesDir); dir != "" {
		if found, err = pictures.Discover(dir); err != nil {
			a.logger.Debug("pictures directory unreadable", "dir", dir, "error", err)
		}
	}

	title := "Attach an image to your post"
	if purpose == pickAvatar {
		title = "Choose a profile picture"
	}

	a.picking = purpose
	a.filePicker = filepicker.New(title, recent, found)
	a.filePicker.Update(tea.WindowSizeMsg{Width: a.contentWidth(), Height: a.contentHeight()})
	a.screen = ScreenImagePicker
	return nil
}

func (a *App) handleFileSelected(msg filepicker.FileSelectedMsg) (tea.Model, tea.Cmd) {
	if err := a.recentFiles.Add(msg.Path); err != nil {
		a.logger.Debug("recent images not saved", "error", err)
	}
	a.filePicker = nil
	a.screen = ScreenDashboard

	if a.picking == pickAvatar {
		return a, a.uploadAvatar(msg.Path)
	}
	return a, tea.Batch(a.attachImage(msg.Path), a.feedView.Reopen())
}

// Run starts the TUI
func Run(cfg Config) error {
	app := New(cfg)
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	app.send = p.Send

	_, err := p.Run()
	return err
}
