package finder

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/dbsmedya/starsift/internal/config"
	"github.com/dbsmedya/starsift/internal/logger"
)

// Excluder drops candidates that SIMBAD lists in a binary-star catalog.
type Excluder struct {
	xref           CrossReferencer
	releaseTag     string
	binaryToken    string
	keepUnresolved bool
	concurrency    int
	log            *logger.Logger
}

// NewExcluder creates an Excluder. concurrency below 1 is treated as 1.
func NewExcluder(xref CrossReferencer, cfg config.CrossRefConfig, concurrency int, log *logger.Logger) *Excluder {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Excluder{
		xref:           xref,
		releaseTag:     strings.TrimSpace(cfg.ReleaseTag),
		binaryToken:    strings.TrimSpace(cfg.BinaryToken),
		keepUnresolved: cfg.KeepUnresolved,
		concurrency:    concurrency,
		log:            log,
	}
}

// Key returns the SIMBAD identifier for a catalog source, e.g. "Gaia DR3 42".
func (e *Excluder) Key(sourceID string) string {
	return e.releaseTag + " " + sourceID
}

// outcome is the verdict on one candidate; exactly one field is set.
type outcome struct {
	record    *Record
	exclusion *Exclusion
}

// Exclude cross-references every candidate and returns the kept records and
// the exclusions, both in candidate order. Lookup failures become exclusions;
// only cancellation of ctx aborts the batch.
func (e *Excluder) Exclude(ctx context.Context, cands []Candidate) ([]Record, []Exclusion, error) {
	outcomes := make([]outcome, len(cands))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range cands {
		i, c := i, cands[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := e.check(gctx, c)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var records []Record
	var exclusions []Exclusion
	for _, o := range outcomes {
		switch {
		case o.record != nil:
			records = append(records, *o.record)
		case o.exclusion != nil:
			exclusions = append(exclusions, *o.exclusion)
		}
	}
	return records, exclusions, nil
}

// check decides one candidate. It returns an error only when ctx is done.
func (e *Excluder) check(ctx context.Context, c Candidate) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}

	key := e.Key(c.SourceID)
	log := e.log.WithCandidate(c.SourceID)

	ids, err := e.xref.QueryIdentifiers(ctx, key)
	if err != nil {
		return e.lookupFailed(ctx, log, c, err)
	}

	if len(ids) == 0 {
		if e.keepUnresolved {
			log.Debugw("Keeping unresolved candidate", "key", key)
			return outcome{record: &Record{
				Name:     key,
				RA:       c.RA,
				Dec:      c.Dec,
				MeanGmag: c.Gmag,
				RUWE:     c.RUWE,
				SourceID: c.SourceID,
			}}, nil
		}
		log.Debugw("Excluding unresolved candidate", "key", key)
		return exclude(c, ReasonUnresolved, "no identifiers for "+key), nil
	}

	if id, ok := BinaryIdentifier(ids, e.binaryToken); ok {
		log.Debugw("Excluding binary", "identifier", id)
		return exclude(c, ReasonBinary, id), nil
	}

	obj, err := e.xref.QueryObject(ctx, key)
	if err != nil {
		return e.lookupFailed(ctx, log, c, err)
	}

	return outcome{record: &Record{
		Name:     NormalizeName(obj.MainID),
		RA:       obj.RA,
		Dec:      obj.Dec,
		MeanGmag: c.Gmag,
		RUWE:     c.RUWE,
		SourceID: c.SourceID,
	}}, nil
}

func (e *Excluder) lookupFailed(ctx context.Context, log *logger.Logger, c Candidate, err error) (outcome, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome{}, ctxErr
	}
	log.Warnw("Cross-reference lookup failed, excluding candidate", "error", err)
	return exclude(c, ReasonLookupFailed, err.Error()), nil
}

func exclude(c Candidate, reason ExclusionReason, detail string) outcome {
	return outcome{exclusion: &Exclusion{SourceID: c.SourceID, Reason: reason, Detail: detail}}
}

// BinaryIdentifier returns the first identifier whose catalog prefix equals
// token, compared case-insensitively ("WDS J11024-7734A" for token "WDS").
func BinaryIdentifier(ids []string, token string) (string, bool) {
	for _, id := range ids {
		fields := strings.Fields(id)
		if len(fields) > 0 && strings.EqualFold(fields[0], token) {
			return id, true
		}
	}
	return "", false
}

// NormalizeName applies NFKC and collapses runs of whitespace, so SIMBAD
// names like "*  alf Cen" become "* alf Cen".
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
