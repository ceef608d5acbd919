package youquery

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/youquery/backend/auth"
	"github.com/youquery/backend/contract"
	"github.com/youquery/backend/github"
	"github.com/youquery/backend/portfolio"
)

var errUnknownCollection = errors.New("unknown portfolio collection")

// portfolioCollections are the path segments the handler routes on.
var portfolioCollections = map[string]bool{
	"profile":    true,
	"projects":   true,
	"skills":     true,
	"experience": true,
}

// parsePortfolioPath extracts the collection and record id from the
// request path. The function may be mounted under a prefix, so segments
// before the collection name are skipped. An empty collection means the
// whole portfolio.
func parsePortfolioPath(path string) (collection, id string, err error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if !portfolioCollections[seg] {
			continue
		}
		if i+1 < len(segments) {
			return seg, segments[i+1], nil
		}
		return seg, "", nil
	}
	if len(segments) > 1 || (len(segments) == 1 && segments[0] != "" && !strings.EqualFold(segments[0], "portfolio")) {
		return "", "", errUnknownCollection
	}
	return "", "", nil
}

func Portfolio(w http.ResponseWriter, r *http.Request) {
	r, logger := requestLogger(r)
	ctx := r.Context()

	token, err := auth.Authenticate(r)
	if err != nil {
		logger.Error("authentication failed", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusUnauthorized, contract.ErrorResponse{Error: "invalid or expired token"})
		return
	}
	logger = logger.With(slog.String(userIDLogField, token.UID))

	collection, id, err := parsePortfolioPath(r.URL.Path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, contract.ErrorResponse{Error: "unknown portfolio collection"})
		return
	}
	logger = logger.With(slog.String(kindLogField, collection))

	db, err := portfolio.NewDatabase(ctx)
	if err != nil {
		logger.Error("failed to connect to the document store", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "service unavailable"})
		return
	}
	svc := portfolio.NewService(db)

	switch r.Method {
	case http.MethodGet:
		servePortfolioGet(w, r, logger, svc, token.UID, collection)
	case http.MethodPost, http.MethodPut:
		servePortfolioSave(w, r, logger, svc, token.UID, collection)
	case http.MethodDelete:
		servePortfolioDelete(w, r, logger, svc, token.UID, collection, id)
	default:
		logger.Error("invalid method: " + r.Method)
		http.Error(w, "Method Not Implemented", http.StatusNotImplemented)
	}
}

func servePortfolioGet(w http.ResponseWriter, r *http.Request, logger *slog.Logger, svc *portfolio.Service, uid, collection string) {
	ctx := r.Context()

	if collection == "profile" {
		profile, err := svc.Profile(ctx, uid)
		if err != nil {
			logger.Error("failed to load profile", slog.String(ErrorMsgLogField, err.Error()))
			writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to load profile"})
			return
		}
		writeJSON(w, http.StatusOK, contract.PortfolioResponse{
			Success:   true,
			Portfolio: &portfolio.Portfolio{Profile: profile},
		})
		return
	}

	p, err := svc.Portfolio(ctx, uid)
	if err != nil {
		logger.Error("failed to load portfolio", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to load portfolio"})
		return
	}
	writeJSON(w, http.StatusOK, contract.PortfolioResponse{Success: true, Portfolio: p})
}

func servePortfolioSave(w http.ResponseWriter, r *http.Request, logger *slog.Logger, svc *portfolio.Service, uid, collection string) {
	ctx := r.Context()

	var req contract.SaveRequest
	if !decodeBody(w, r, logger, &req) {
		return
	}

	switch collection {
	case "projects":
		if req.Project == nil {
			writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "project record is required"})
			return
		}
		if err := portfolio.ValidateProject(*req.Project); err != nil {
			writeValidationError(w, err)
			return
		}
		if req.Enrich {
			enrichProject(ctx, logger, req.Project)
		}
		id, err := svc.SaveProject(ctx, uid, *req.Project)
		if err != nil {
			logger.Error("failed to save project", slog.String(ErrorMsgLogField, err.Error()))
			writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to save project"})
			return
		}
		writeJSON(w, http.StatusOK, contract.SaveResponse{Success: true, ID: id})

	case "skills":
		if req.Skill == nil {
			writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "skill record is required"})
			return
		}
		if err := portfolio.ValidateSkill(*req.Skill); err != nil {
			writeValidationError(w, err)
			return
		}
		id, err := svc.SaveSkill(ctx, uid, *req.Skill)
		if err != nil {
			logger.Error("failed to save skill", slog.String(ErrorMsgLogField, err.Error()))
			writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to save skill"})
			return
		}
		writeJSON(w, http.StatusOK, contract.SaveResponse{Success: true, ID: id})

	case "experience":
		if req.Experience == nil {
			writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "experience record is required"})
			return
		}
		if err := portfolio.ValidateExperience(*req.Experience); err != nil {
			writeValidationError(w, err)
			return
		}
		id, err := svc.SaveExperience(ctx, uid, *req.Experience)
		if err != nil {
			logger.Error("failed to save experience", slog.String(ErrorMsgLogField, err.Error()))
			writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to save experience"})
			return
		}
		writeJSON(w, http.StatusOK, contract.SaveResponse{Success: true, ID: id})

	case "profile":
		if req.Profile == nil {
			writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "profile record is required"})
			return
		}
		if err := svc.SaveProfile(ctx, uid, *req.Profile); err != nil {
			logger.Error("failed to save profile", slog.String(ErrorMsgLogField, err.Error()))
			writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to save profile"})
			return
		}
		writeJSON(w, http.StatusOK, contract.SaveResponse{Success: true})

	default:
		writeJSON(w, http.StatusNotFound, contract.ErrorResponse{Error: "unknown portfolio collection"})
	}
}

func servePortfolioDelete(w http.ResponseWriter, r *http.Request, logger *slog.Logger, svc *portfolio.Service, uid, collection, id string) {
	ctx := r.Context()

	if id == "" {
		writeJSON(w, http.StatusBadRequest, contract.ErrorResponse{Error: "record id is required"})
		return
	}

	var err error
	switch collection {
	case "projects":
		err = svc.DeleteProject(ctx, uid, id)
	case "skills":
		err = svc.DeleteSkill(ctx, uid, id)
	case "experience":
		err = svc.DeleteExperience(ctx, uid, id)
	default:
		writeJSON(w, http.StatusNotFound, contract.ErrorResponse{Error: "unknown portfolio collection"})
		return
	}
	if err != nil {
		logger.Error("failed to delete record", slog.String(ErrorMsgLogField, err.Error()))
		writeJSON(w, http.StatusInternalServerError, contract.ErrorResponse{Error: "failed to delete record"})
		return
	}
	writeJSON(w, http.StatusOK, contract.StatusResponse{Success: true})
}

// enrichProject fills repository metadata from the GitHub API. Enrichment
// is best effort: failures leave the record as submitted.
func enrichProject(ctx context.Context, logger *slog.Logger, p *portfolio.Project) {
	if p.GithubLink == "" {
		return
	}
	owner, name, err := github.ParseRepoURL(p.GithubLink)
	if err != nil {
		logger.Info("github link is not a repository URL", slog.String("link", p.GithubLink))
		return
	}
	repo, err := github.Fetch(ctx, owner, name)
	if err != nil {
		logger.Error("failed to fetch repository metadata", slog.String(ErrorMsgLogField, err.Error()))
		return
	}
	p.Stars = repo.Stars
	p.Language = repo.Language
	if p.LiveDemoLink == "" && repo.Homepage != "" {
		p.LiveDemoLink = repo.Homepage
	}
}
