// Package service orchestrates report operations: it resolves the caller,
// asks the lifecycle rules for permission against a freshly read report,
// applies the change through the store and emits the matching event.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/agrirelief/internal/aidmap"
	"github.com/iliyamo/agrirelief/internal/identity"
	"github.com/iliyamo/agrirelief/internal/lifecycle"
	"github.com/iliyamo/agrirelief/internal/model"
	q "github.com/iliyamo/agrirelief/internal/queue"
	"github.com/iliyamo/agrirelief/internal/repository"
	"github.com/iliyamo/agrirelief/internal/storage"
)

// UnknownFarmerName is stored when neither the submission nor the profile
// provides a name.
const UnknownFarmerName = "Unknown Farmer"

// ErrInFlight is returned when a submission with the same idempotency key
// is still being processed.
var ErrInFlight = fmt.Errorf("submission with this idempotency key is in progress: %w", repository.ErrConflict)

// ReportStore is implemented by repository.ReportRepo and
// repository.MemoryReportRepo.
type ReportStore interface {
	Create(ctx context.Context, rep *model.DamageReport, ownerUID string) (string, error)
	GetByID(ctx context.Context, id string) (*model.DamageReport, error)
	ListAll(ctx context.Context) ([]model.DamageReport, error)
	ListByOwner(ctx context.Context, uid string) ([]model.DamageReport, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (applied bool, err error)
	Delete(ctx context.Context, id string) error
}

// Resolver is implemented by identity.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, uid string) (identity.Principal, error)
	Profile(ctx context.Context, uid string) (*model.UserProfile, error)
}

// CachePurger drops cached read responses after a mutation.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// ImageUpload is one image attached to a submission. Open is called once,
// from the upload goroutine.
type ImageUpload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Deps groups the collaborators of ReportService. Reports, Identity and
// Blobs are required.
type Deps struct {
	Reports     ReportStore
	Identity    Resolver
	Blobs       storage.BlobStore
	Events      Publisher
	Idempotency Idempotency
	Cache       CachePurger
}

// Options tunes ReportService.
type Options struct {
	StoreTimeout   time.Duration
	HideUnverified bool
	MaxImages      int
	MaxImageBytes  int64
	Now            func() time.Time
}

// ReportService implements the report use cases.
type ReportService struct {
	d Deps
	o Options
}

// NewReportService wires a ReportService. It panics if a required
// dependency is missing.
func NewReportService(d Deps, o Options) *ReportService {
	if d.Reports == nil || d.Identity == nil || d.Blobs == nil {
		panic("service: NewReportService requires reports, identity and blobs")
	}
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Idempotency == nil {
		d.Idempotency = NewMemoryIdempotency(0)
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.MaxImages <= 0 {
		o.MaxImages = 5
	}
	if o.MaxImageBytes <= 0 {
		o.MaxImageBytes = 10 << 20
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &ReportService{d: d, o: o}
}

// HideUnverified reports whether the public views omit Pending reports.
func (s *ReportService) HideUnverified() bool { return s.o.HideUnverified }

// storeCtx bounds a single store call.
func (s *ReportService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.o.StoreTimeout)
}

func (s *ReportService) resolve(ctx context.Context, uid string) (identity.Principal, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.d.Identity.Resolve(sctx, uid)
}

func (s *ReportService) get(ctx context.Context, id string) (*model.DamageReport, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.d.Reports.GetByID(sctx, id)
}

// Submission is the input of Submit.
type Submission struct {
	Report         model.DamageReport
	Images         []ImageUpload
	IdempotencyKey string
}

// Submit creates a report for the farmer uid. Images are uploaded
// concurrently first; the report is created only once every upload has
// succeeded. With an idempotency key a retried submission returns the
// report created by the first attempt and replayed is true.
func (s *ReportService) Submit(ctx context.Context, uid string, sub Submission) (rep *model.DamageReport, replayed bool, err error) {
	p, err := s.resolve(ctx, uid)
	if err != nil {
		return nil, false, err
	}
	if err := lifecycle.AuthorizeCreate(p.Role); err != nil {
		return nil, false, err
	}

	r := sub.Report
	if err := s.applyProfileDefaults(ctx, uid, &r); err != nil {
		return nil, false, err
	}
	// Validate before touching the blob store so a bad form leaves no
	// orphaned uploads behind. The store validates again on insert.
	r.FarmerID = uid
	r.Images = nil
	model.NormalizeReport(&r)
	ve := &model.ValidationError{}
	if err := model.ValidateReport(&r); err != nil {
		errors.As(err, &ve)
	}
	s.checkImages(sub.Images, ve)
	if len(ve.Fields) > 0 {
		return nil, false, ve
	}

	key := ""
	if k := strings.TrimSpace(sub.IdempotencyKey); k != "" {
		key = uid + ":" + k
		existing, reserved, err := s.d.Idempotency.Reserve(ctx, key)
		if err != nil {
			log.Printf("report-service: idempotency reserve failed, continuing without: %v", err)
			key = ""
		} else if !reserved {
			if existing == "" {
				return nil, false, ErrInFlight
			}
			prev, err := s.get(ctx, existing)
			if err != nil {
				return nil, false, err
			}
			return prev, true, nil
		}
	}
	release := func() {
		if key != "" {
			if err := s.d.Idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Printf("report-service: idempotency release failed: %v", err)
			}
		}
	}

	urls, err := s.uploadImages(ctx, uid, sub.Images)
	if err != nil {
		release()
		return nil, false, err
	}
	r.Images = urls

	sctx, cancel := s.storeCtx(ctx)
	_, err = s.d.Reports.Create(sctx, &r, uid)
	cancel()
	if err != nil {
		release()
		return nil, false, err
	}
	if key != "" {
		if err := s.d.Idempotency.Complete(context.WithoutCancel(ctx), key, r.ReportID); err != nil {
			log.Printf("report-service: idempotency complete failed: %v", err)
		}
	}

	s.afterMutation(ctx, q.NewReportEvent(q.EventReportSubmitted, &r, p.UID, p.Role, s.o.Now()))
	return &r, false, nil
}

// applyProfileDefaults fills farmer_name and contact_number from the
// submitter's profile when the form leaves them blank.
func (s *ReportService) applyProfileDefaults(ctx context.Context, uid string, r *model.DamageReport) error {
	if strings.TrimSpace(r.FarmerName) != "" && strings.TrimSpace(r.ContactNumber) != "" {
		return nil
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	prof, err := s.d.Identity.Profile(sctx, uid)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.FarmerName) == "" {
		r.FarmerName = prof.Name
	}
	if strings.TrimSpace(r.FarmerName) == "" {
		r.FarmerName = UnknownFarmerName
	}
	if strings.TrimSpace(r.ContactNumber) == "" {
		r.ContactNumber = prof.Phone
	}
	return nil
}

func (s *ReportService) checkImages(imgs []ImageUpload, ve *model.ValidationError) {
	if len(imgs) > s.o.MaxImages {
		ve.Fields = append(ve.Fields, model.FieldError{
			Field: "images", Message: fmt.Sprintf("at most %d images per report", s.o.MaxImages),
		})
	}
	for _, img := range imgs {
		if img.Size > s.o.MaxImageBytes {
			ve.Fields = append(ve.Fields, model.FieldError{
				Field: "images", Message: fmt.Sprintf("%s exceeds %d bytes", img.Name, s.o.MaxImageBytes),
			})
		}
		if !strings.HasPrefix(img.ContentType, "image/") {
			ve.Fields = append(ve.Fields, model.FieldError{
				Field: "images", Message: fmt.Sprintf("%s is not an image", img.Name),
			})
		}
	}
}

// uploadImages stores every image concurrently and returns the URLs in
// submission order. The first failure cancels the remaining uploads.
func (s *ReportService) uploadImages(ctx context.Context, uid string, imgs []ImageUpload) ([]string, error) {
	urls := make([]string, len(imgs))
	if len(imgs) == 0 {
		return urls, nil
	}
	now := s.o.Now()
	names := uniqueNames(imgs)

	g, gctx := errgroup.WithContext(ctx)
	for i, img := range imgs {
		i, img := i, img
		g.Go(func() error {
			rc, err := img.Open()
			if err != nil {
				return fmt.Errorf("open image %q: %w", img.Name, err)
			}
			defer rc.Close()
			url, err := s.d.Blobs.Put(gctx, storage.ObjectPath(uid, names[i], now), rc, img.ContentType)
			if err != nil {
				return fmt.Errorf("upload image %q: %w: %w", img.Name, repository.ErrStoreUnavailable, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// uniqueNames disambiguates repeated file names within one submission,
// since all of them share the same timestamp in the object path.
func uniqueNames(imgs []ImageUpload) []string {
	seen := map[string]int{}
	out := make([]string, len(imgs))
	for i, img := range imgs {
		name := img.Name
		if n := seen[name]; n > 0 {
			ext := path.Ext(name)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		seen[img.Name]++
		out[i] = name
	}
	return out
}

// Verify marks a report Verified on behalf of an official. Verifying an
// already verified report succeeds with noop=true and emits nothing.
func (s *ReportService) Verify(ctx context.Context, uid, reportID string) (rep *model.DamageReport, noop bool, err error) {
	p, err := s.resolve(ctx, uid)
	if err != nil {
		return nil, false, err
	}
	if err := lifecycle.AuthorizeReview(p.Role); err != nil {
		return nil, false, err
	}
	rep, err = s.get(ctx, reportID)
	if err != nil {
		return nil, false, err
	}
	noop, err = lifecycle.AuthorizeVerify(p.Role, rep)
	if err != nil || noop {
		return rep, noop, err
	}

	sctx, cancel := s.storeCtx(ctx)
	applied, err := s.d.Reports.UpdateStatus(sctx, reportID, model.StatusVerified)
	cancel()
	if err != nil {
		return nil, false, err
	}
	rep.SetStatus(model.StatusVerified)
	if !applied {
		// Another official verified it between our read and write.
		return rep, true, nil
	}
	s.afterMutation(ctx, q.NewReportEvent(q.EventReportVerified, rep, p.UID, p.Role, s.o.Now()))
	return rep, false, nil
}

// Delete removes a Pending report on behalf of its owner.
func (s *ReportService) Delete(ctx context.Context, uid, reportID string) error {
	p, err := s.resolve(ctx, uid)
	if err != nil {
		return err
	}
	rep, err := s.get(ctx, reportID)
	if err != nil {
		return err
	}
	if err := lifecycle.AuthorizeDelete(p.UID, rep); err != nil {
		return err
	}

	sctx, cancel := s.storeCtx(ctx)
	err = s.d.Reports.Delete(sctx, reportID)
	cancel()
	if err != nil {
		return err
	}
	s.afterMutation(ctx, q.NewReportEvent(q.EventReportDeleted, rep, p.UID, p.Role, s.o.Now()))
	return nil
}

// afterMutation publishes ev and purges cached read views. Failures are
// logged; the mutation itself has already been applied.
func (s *ReportService) afterMutation(ctx context.Context, ev q.ReportEvent) {
	bg := context.WithoutCancel(ctx)
	if err := s.d.Events.Publish(bg, ev); err != nil {
		log.Printf("report-service: publish %s for %s failed: %v", ev.Type, ev.ReportID, err)
	}
	if s.d.Cache != nil {
		if err := s.d.Cache.Purge(bg); err != nil {
			log.Printf("report-service: cache purge failed: %v", err)
		}
	}
}

// viewer resolves an optional caller for the public read paths. A missing
// or unknown subject reads anonymously.
func (s *ReportService) viewer(ctx context.Context, uid string) (lifecycle.Viewer, error) {
	if uid == "" || !s.o.HideUnverified {
		return lifecycle.Viewer{UID: uid}, nil
	}
	p, err := s.resolve(ctx, uid)
	if errors.Is(err, identity.ErrUnauthenticated) {
		return lifecycle.Viewer{}, nil
	}
	if err != nil {
		return lifecycle.Viewer{}, err
	}
	return lifecycle.Viewer{UID: p.UID, Role: p.Role}, nil
}

// Get returns a single report if the caller may see it.
func (s *ReportService) Get(ctx context.Context, uid, reportID string) (*model.DamageReport, error) {
	v, err := s.viewer(ctx, uid)
	if err != nil {
		return nil, err
	}
	rep, err := s.get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(v, rep, s.o.HideUnverified) {
		return nil, repository.ErrNotFound
	}
	return rep, nil
}

// ListPublic returns every report visible to the caller, newest first.
func (s *ReportService) ListPublic(ctx context.Context, uid string) ([]model.DamageReport, error) {
	v, err := s.viewer(ctx, uid)
	if err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	all, err := s.d.Reports.ListAll(sctx)
	if err != nil {
		return nil, err
	}
	if !s.o.HideUnverified {
		return all, nil
	}
	out := make([]model.DamageReport, 0, len(all))
	for i := range all {
		if lifecycle.CanView(v, &all[i], true) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Map builds the public aid map for the need token.
func (s *ReportService) Map(ctx context.Context, uid, need string) (aidmap.View, error) {
	n, err := aidmap.ParseNeed(need)
	if err != nil {
		return aidmap.View{}, err
	}
	reports, err := s.ListPublic(ctx, uid)
	if err != nil {
		return aidmap.View{}, err
	}
	return aidmap.Build(reports, n), nil
}

// ListMine returns the caller's own reports, newest first.
func (s *ReportService) ListMine(ctx context.Context, uid string) ([]model.DamageReport, error) {
	p, err := s.resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	// Only farmers own reports.
	if err := lifecycle.AuthorizeCreate(p.Role); err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.d.Reports.ListByOwner(sctx, p.UID)
}

// Dashboard returns every report, unfiltered, for officials.
func (s *ReportService) Dashboard(ctx context.Context, uid string) ([]model.DamageReport, error) {
	p, err := s.resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.AuthorizeReview(p.Role); err != nil {
		return nil, err
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.d.Reports.ListAll(sctx)
}
