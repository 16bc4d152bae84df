package site

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"

	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/internal/tutorial"
	"ops-web/ops-web-backend/internal/variant"
	"ops-web/ops-web-backend/pkg/workflows"
)

// Config holds the page settings
type Config struct {
	VideoURL string
	Links    sms.AppLinks
}

// Handler serves the HTML pages
type Handler struct {
	tutorials  *tutorial.Service
	onboarding *onboarding.Service
	variantOf  func(*gin.Context) string
	visitorOf  func(*gin.Context) string
	steps      *workflows.StateMachine
	cfg        Config
	logger     *zap.Logger
}

func NewHandler(tutorials *tutorial.Service, onboarding *onboarding.Service, variantOf, visitorOf func(*gin.Context) string, cfg Config, logger *zap.Logger) *Handler {
	return &Handler{
		tutorials:  tutorials,
		onboarding: onboarding,
		variantOf:  variantOf,
		visitorOf:  visitorOf,
		steps:      workflows.NewSignupStateMachine(),
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterRoutes registers the page routes on the root router
func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	RegisterStatic(router)
	router.GET("/", h.landing)
	router.GET("/tutorial", h.tutorial)
	router.GET("/tutorial/:id", h.tutorialSession)
	router.POST("/tutorial/:id/action", h.tutorialAction)
	router.GET("/signup", h.signupResume)
	router.GET("/signup/:step", h.signup)
}

func (h *Handler) render(c *gin.Context, status int, page g.Node) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := page.Render(c.Writer); err != nil {
		h.logger.Error("Failed to render page", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
}

func (h *Handler) landing(c *gin.Context) {
	v := h.variantOf(c)
	h.remember(c, v)
	h.render(c, http.StatusOK, LandingPage(v))
}

// tutorial shows the video for variant a and starts a fresh interactive
// session for variant b.
func (h *Handler) tutorial(c *gin.Context) {
	v := h.variantOf(c)
	h.remember(c, v)
	if v == variant.A {
		h.render(c, http.StatusOK, VideoTutorialPage(v, h.cfg.VideoURL))
		return
	}

	session := h.tutorials.Create(v, h.visitorOf(c))
	h.render(c, http.StatusOK, InteractiveTutorialPage(tutorial.NewShell(session).View()))
}

func (h *Handler) tutorialSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/tutorial")
		return
	}
	view, err := h.tutorials.View(id)
	if err != nil {
		h.tutorialGone(c, err)
		return
	}
	h.render(c, http.StatusOK, InteractiveTutorialPage(view))
}

// tutorialAction applies a form post from the mock app, then redirects back
// to the session page.
func (h *Handler) tutorialAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/tutorial")
		return
	}

	op := c.PostForm(fieldAction)
	switch op {
	case opBack:
		_, _, err = h.tutorials.Back(id)
	case opSkip:
		_, _, err = h.tutorials.Skip(id)
	default:
		value := c.PostForm(fieldValue)
		if crew := c.PostFormArray(fieldCrew); len(crew) > 0 {
			value = strings.Join(crew, ",")
		}
		_, _, err = h.tutorials.Dispatch(id, tutorial.Action(op), value)
	}
	if err != nil {
		h.tutorialGone(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/tutorial/%s", id))
}

func (h *Handler) tutorialGone(c *gin.Context, err error) {
	if !errors.Is(err, tutorial.ErrSessionNotFound) {
		h.logger.Error("Tutorial page failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/tutorial")
}

// signupResume sends the visitor to the step they last reached
func (h *Handler) signupResume(c *gin.Context) {
	step := workflows.StepAccount
	if st := h.state(c); st != nil && st.Step != workflows.StepDone {
		step = st.Step
	}
	c.Redirect(http.StatusFound, "/signup/"+step)
}

func (h *Handler) signup(c *gin.Context) {
	step := c.Param("step")
	if !h.steps.Known(step) {
		h.render(c, http.StatusNotFound, Layout(PageConfig{Title: "Not found"},
			notFound("That signup step does not exist.", "/signup"),
		))
		return
	}

	st := h.state(c)
	if st == nil {
		st = &onboarding.State{VisitorID: h.visitorOf(c), Variant: h.variantOf(c), Step: workflows.StepAccount}
	}
	h.render(c, http.StatusOK, SignupPage(step, st, h.cfg.Links))
}

func (h *Handler) state(c *gin.Context) *onboarding.State {
	if h.visitorOf(c) == "" {
		return nil
	}
	st, err := h.onboarding.Load(c.Request.Context(), h.visitorOf(c), h.variantOf(c))
	if err != nil {
		h.logger.Warn("Failed to load onboarding state", zap.Error(err))
		return nil
	}
	return st
}

// remember stores the visitor's variant in the onboarding store
func (h *Handler) remember(c *gin.Context, v string) {
	st := h.state(c)
	if st == nil || v == "" || st.Variant == v {
		return
	}
	if _, err := h.onboarding.Apply(c.Request.Context(), st.VisitorID, onboarding.Patch{Variant: onboarding.String(v)}); err != nil {
		h.logger.Warn("Failed to store variant", zap.Error(err))
	}
}
