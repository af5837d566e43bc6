// Package inspection runs the inspection workflow: creation from a
// template, item evaluation, finalization with signatures and evidence.
package inspection

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateFinder loads checklist templates
type TemplateFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*checklist.Template, error)
}

// UserFinder loads the user assigned as inspector
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// UsageChecker enforces plan limits
type UsageChecker interface {
	CheckUsage(ctx context.Context, orgID uuid.UUID, usageType billing.UsageType) error
}

// ActionItemDrafts stores the action items drafted on finalize
type ActionItemDrafts interface {
	ItemIDsWithActions(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	SaveAll(ctx context.Context, items []*actionplan.ActionItem) error
}

// TxManager runs fn in one database transaction
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ObjectStorage is the subset of the object store the workflow needs
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// InspectionService handles the inspection lifecycle
type InspectionService struct {
	repo      inspection.Repository
	items     inspection.ItemRepository
	evidence  inspection.EvidenceRepository
	templates TemplateFinder
	users     UserFinder
	objects   ObjectStorage
	logger    *zap.Logger

	actions ActionItemDrafts
	usage   UsageChecker
	tx      TxManager
	events  shared.EventPublisher
	now     func() time.Time
}

// NewInspectionService creates a new inspection service
func NewInspectionService(
	repo inspection.Repository,
	items inspection.ItemRepository,
	evidence inspection.EvidenceRepository,
	templates TemplateFinder,
	users UserFinder,
	objects ObjectStorage,
	logger *zap.Logger,
) *InspectionService {
	return &InspectionService{
		repo:      repo,
		items:     items,
		evidence:  evidence,
		templates: templates,
		users:     users,
		objects:   objects,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the publisher for inspection events
func (s *InspectionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// SetUsageChecker enables the monthly inspection quota
func (s *InspectionService) SetUsageChecker(usage UsageChecker) {
	s.usage = usage
}

// SetActionItemDrafts enables drafting action items on finalize
func (s *InspectionService) SetActionItemDrafts(actions ActionItemDrafts) {
	s.actions = actions
}

// SetTransactionManager makes multi-row writes atomic
func (s *InspectionService) SetTransactionManager(tx TxManager) {
	s.tx = tx
}

// Create creates an inspection, copying the template fields as items
func (s *InspectionService) Create(ctx context.Context, scope identity.AccessScope, input CreateInspectionInput) (*InspectionResponse, error) {
	if err := scope.Require(identity.PermInspectionCreate); err != nil {
		return nil, err
	}
	orgID := scope.OrganizationID
	if input.OrganizationID != nil {
		orgID = *input.OrganizationID
	}
	if err := scope.RequireOrganization(orgID); err != nil {
		return nil, err
	}
	if s.usage != nil {
		if err := s.usage.CheckUsage(ctx, orgID, billing.UsageInspectionsMonthly); err != nil {
			return nil, err
		}
	}

	insp, err := inspection.NewInspection(orgID, scope.UserID, input.Title)
	if err != nil {
		return nil, err
	}
	if err := insp.UpdateDetails(inspection.Details{
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		CompanyName:      input.CompanyName,
		Address:          input.Address,
		Geo:              input.Geo,
		ResponsibleName:  input.ResponsibleName,
		ResponsibleEmail: input.ResponsibleEmail,
		Priority:         input.Priority,
		ScheduledAt:      input.ScheduledAt,
	}); err != nil {
		return nil, err
	}

	inspectorID := input.InspectorID
	if inspectorID == nil && scope.Role == identity.RoleInspector {
		self := scope.UserID
		inspectorID = &self
	}
	if inspectorID != nil {
		if err := s.assignInspector(ctx, insp, *inspectorID); err != nil {
			return nil, err
		}
	}

	var items []inspection.Item
	if input.TemplateID != nil {
		tpl, err := s.templates.FindByID(ctx, *input.TemplateID)
		if err != nil {
			return nil, err
		}
		if !tpl.VisibleTo(scope.CanAccessOrganization) {
			return nil, shared.ErrNotFound
		}
		insp.UseTemplate(tpl)
		items = inspection.ItemsFromTemplate(insp, tpl)
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, insp); err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return s.items.SaveAll(ctx, items)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inspection created",
		zap.String("inspection_id", insp.ID.String()),
		zap.String("organization_id", orgID.String()),
		zap.Int("items", len(items)))
	s.publish(ctx, scope, insp)

	resp := withChildren(ToInspectionResponse(insp), items, nil)
	return &resp, nil
}

// Get returns an inspection with its items, signatures and running score
func (s *InspectionService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*InspectionResponse, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionRead)
	if err != nil {
		return nil, err
	}
	items, err := s.items.FindByInspection(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	sigs, err := s.evidence.FindSignatures(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	resp := withChildren(ToInspectionResponse(insp), items, sigs)
	return &resp, nil
}

// List returns inspections of the visible organizations
func (s *InspectionService) List(ctx context.Context, scope identity.AccessScope, filter ListFilter) (*shared.Paginated[InspectionResponse], error) {
	if err := scope.Require(identity.PermInspectionRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	list, total, err := s.repo.FindAll(ctx, inspection.Filter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		Status:          filter.Status,
		InspectorID:     filter.InspectorID,
		From:            filter.From,
		To:              filter.To,
	})
	if err != nil {
		return nil, err
	}
	out := make([]InspectionResponse, len(list))
	for i := range list {
		out[i] = ToInspectionResponse(&list[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update replaces the descriptive fields of an open inspection
func (s *InspectionService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateInspectionInput) (*InspectionResponse, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionUpdate)
	if err != nil {
		return nil, err
	}
	if err := insp.UpdateDetails(inspection.Details{
		Title:            input.Title,
		Description:      input.Description,
		Location:         input.Location,
		CompanyName:      input.CompanyName,
		Address:          input.Address,
		Geo:              input.Geo,
		ResponsibleName:  input.ResponsibleName,
		ResponsibleEmail: input.ResponsibleEmail,
		Priority:         input.Priority,
		ScheduledAt:      input.ScheduledAt,
	}); err != nil {
		return nil, err
	}
	if input.InspectorID != nil && (insp.InspectorID == nil || *insp.InspectorID != *input.InspectorID) {
		if err := s.assignInspector(ctx, insp, *input.InspectorID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, insp); err != nil {
		return nil, err
	}
	resp := ToInspectionResponse(insp)
	return &resp, nil
}

// Delete removes an inspection that was not completed, with its stored files
func (s *InspectionService) Delete(ctx context.Context, scope identity.AccessScope, id uuid.UUID) error {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionDelete)
	if err != nil {
		return err
	}
	if insp.Status == inspection.StatusCompleted {
		return shared.NewDomainError("INSPECTION_CLOSED", "Completed inspections must be reopened before deletion")
	}
	media, err := s.evidence.FindMedia(ctx, insp.ID)
	if err != nil {
		return err
	}
	sigs, err := s.evidence.FindSignatures(ctx, insp.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, insp.ID); err != nil {
		return err
	}

	keys := make([]string, 0, len(media)+len(sigs))
	for _, m := range media {
		keys = append(keys, m.StorageKey)
	}
	for _, sig := range sigs {
		keys = append(keys, sig.StorageKey)
	}
	s.deleteObjects(ctx, keys)

	s.logger.Info("Inspection deleted",
		zap.String("inspection_id", insp.ID.String()),
		zap.Int("objects", len(keys)))
	return nil
}

// Start moves a pending inspection into progress
func (s *InspectionService) Start(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*InspectionResponse, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionUpdate)
	if err != nil {
		return nil, err
	}
	if err := insp.Start(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, insp); err != nil {
		return nil, err
	}
	s.publish(ctx, scope, insp)
	resp := ToInspectionResponse(insp)
	return &resp, nil
}

// Cancel abandons an open inspection
func (s *InspectionService) Cancel(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*InspectionResponse, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionUpdate)
	if err != nil {
		return nil, err
	}
	if err := insp.Cancel(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, insp); err != nil {
		return nil, err
	}
	s.logger.Info("Inspection cancelled", zap.String("inspection_id", insp.ID.String()))
	s.publish(ctx, scope, insp)
	resp := ToInspectionResponse(insp)
	return &resp, nil
}

// Reopen moves a completed inspection back to in progress
func (s *InspectionService) Reopen(ctx context.Context, scope identity.AccessScope, id uuid.UUID, reason string) (*InspectionResponse, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionReopen)
	if err != nil {
		return nil, err
	}
	if err := insp.Reopen(reason); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, insp); err != nil {
		return nil, err
	}
	s.logger.Info("Inspection reopened",
		zap.String("inspection_id", insp.ID.String()),
		zap.String("user_id", scope.UserID.String()))
	s.publish(ctx, scope, insp)
	resp := ToInspectionResponse(insp)
	return &resp, nil
}

// AddItem appends an ad-hoc question to an open inspection
func (s *InspectionService) AddItem(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input AddItemInput) (*ItemResponse, error) {
	insp, err := s.editable(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.items.FindByInspection(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	item, err := inspection.NewItem(insp, input.Category, input.Description, input.FieldType, len(existing))
	if err != nil {
		return nil, err
	}
	item.Required = input.Required
	if item.FieldType.NeedsOptions() {
		if len(input.Options) == 0 {
			return nil, shared.NewDomainError("INVALID_FIELD", "Select fields need at least one option")
		}
		item.Options = input.Options
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// DeleteItem removes a question from an open inspection
func (s *InspectionService) DeleteItem(ctx context.Context, scope identity.AccessScope, id, itemID uuid.UUID) error {
	insp, err := s.editable(ctx, scope, id)
	if err != nil {
		return err
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.InspectionID != insp.ID {
		return shared.ErrNotFound
	}
	return s.items.Delete(ctx, item.ID)
}

// UpdateItem records the answer to one item
func (s *InspectionService) UpdateItem(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input ItemAnswerInput) (*ItemResponse, error) {
	out, err := s.UpdateItems(ctx, scope, id, []ItemAnswerInput{input})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// UpdateItems records a batch of answers. A pending inspection is started
// by its first answer.
func (s *InspectionService) UpdateItems(ctx context.Context, scope identity.AccessScope, id uuid.UUID, answers []ItemAnswerInput) ([]ItemResponse, error) {
	if len(answers) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "No answers given")
	}
	insp, err := s.editable(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	all, err := s.items.FindByInspection(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inspection.Item, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}

	now := s.now()
	changed := make([]inspection.Item, 0, len(answers))
	for _, a := range answers {
		item, ok := byID[a.ItemID]
		if !ok {
			return nil, shared.ErrNotFound
		}
		if err := item.Evaluate(inspection.Answer{
			IsCompliant:   a.IsCompliant,
			NotApplicable: a.NotApplicable,
			Response:      a.Response,
			Observations:  a.Observations,
		}, scope.UserID, now); err != nil {
			return nil, err
		}
		changed = append(changed, *item)
	}

	started := insp.Status == inspection.StatusPending
	if started {
		if err := insp.Start(now); err != nil {
			return nil, err
		}
	}
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.items.SaveAll(ctx, changed); err != nil {
			return err
		}
		if started {
			return s.repo.Save(ctx, insp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if started {
		s.publish(ctx, scope, insp)
	}

	out := make([]ItemResponse, len(changed))
	for i := range changed {
		out[i] = ToItemResponse(&changed[i])
	}
	return out, nil
}

// Finalize closes the inspection: signatures are stored, the score is
// stamped and, when asked, non-compliant items get draft action items.
func (s *InspectionService) Finalize(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input FinalizeInput) (*FinalizeResult, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionFinalize)
	if err != nil {
		return nil, err
	}
	if !insp.Status.IsOpen() {
		return nil, shared.NewDomainError("INVALID_STATE", "Only pending or in-progress inspections can be finalized")
	}

	items, err := s.items.FindByInspection(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	existing, err := s.evidence.FindSignatures(ctx, insp.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fresh, uploaded, err := s.buildSignatures(ctx, insp, input.Signatures, now)
	if err != nil {
		return nil, err
	}
	signatures := mergeSignatures(existing, fresh)

	if err := insp.Finalize(inspection.FinalizeInput{
		Items:           items,
		Signatures:      signatures,
		Summary:         input.Summary,
		Recommendations: input.Recommendations,
		At:              now,
	}); err != nil {
		s.deleteObjects(ctx, uploaded)
		return nil, err
	}
	score := inspection.CalculateScore(items)

	var drafts []*actionplan.ActionItem
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, insp); err != nil {
			return err
		}
		if len(fresh) > 0 {
			if err := s.evidence.SaveSignatures(ctx, fresh); err != nil {
				return err
			}
		}
		if !input.CreateActionItems || s.actions == nil {
			return nil
		}
		drafts, err = s.draftActions(ctx, scope, insp, items)
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			return nil
		}
		return s.actions.SaveAll(ctx, drafts)
	})
	if err != nil {
		s.deleteObjects(ctx, uploaded)
		return nil, err
	}

	s.logger.Info("Inspection finalized",
		zap.String("inspection_id", insp.ID.String()),
		zap.String("score", score.Percentage.StringFixed(2)),
		zap.Int("action_items", len(drafts)))
	s.publish(ctx, scope, insp)
	for _, d := range drafts {
		s.publish(ctx, scope, d)
	}

	return &FinalizeResult{
		Inspection:         withChildren(ToInspectionResponse(insp), items, signatures),
		Score:              score,
		ActionItemsCreated: len(drafts),
	}, nil
}

// buildSignatures stores inline images and validates uploaded keys.
// It returns the new signatures and the object keys written.
func (s *InspectionService) buildSignatures(ctx context.Context, insp *inspection.Inspection, in []SignatureInput, at time.Time) ([]inspection.Signature, []string, error) {
	var (
		out      []inspection.Signature
		uploaded []string
	)
	fail := func(err error) ([]inspection.Signature, []string, error) {
		s.deleteObjects(ctx, uploaded)
		return nil, nil, err
	}

	for _, si := range in {
		key := si.StorageKey
		switch {
		case si.DataURL != "":
			data, contentType, ext, err := decodeDataURL(si.DataURL)
			if err != nil {
				return fail(err)
			}
			key = storage.SignatureKey(insp.OrganizationID, insp.ID, string(si.Kind), ext)
			if err := s.objects.Put(ctx, key, data, contentType); err != nil {
				return fail(err)
			}
			uploaded = append(uploaded, key)
		case key != "":
			if !storage.KeyBelongsTo(key, insp.OrganizationID) {
				return fail(shared.NewDomainError("INVALID_SIGNATURE", "Signature image does not belong to this organization"))
			}
		}
		sig, err := inspection.NewSignature(insp, si.Kind, si.SignerName, si.SignerRole, key, at)
		if err != nil {
			return fail(err)
		}
		out = append(out, *sig)
	}
	return out, uploaded, nil
}

// mergeSignatures lets a new signature replace a stored one of the same kind
func mergeSignatures(existing, fresh []inspection.Signature) []inspection.Signature {
	kinds := make(map[inspection.SignatureKind]bool, len(fresh))
	for _, f := range fresh {
		kinds[f.Kind] = true
	}
	out := make([]inspection.Signature, 0, len(existing)+len(fresh))
	for _, e := range existing {
		if !kinds[e.Kind] {
			out = append(out, e)
		}
	}
	return append(out, fresh...)
}

func (s *InspectionService) draftActions(ctx context.Context, scope identity.AccessScope, insp *inspection.Inspection, items []inspection.Item) ([]*actionplan.ActionItem, error) {
	var failed []uuid.UUID
	for i := range items {
		if items[i].IsNonCompliant() {
			failed = append(failed, items[i].ID)
		}
	}
	if len(failed) == 0 {
		return nil, nil
	}
	covered, err := s.actions.ItemIDsWithActions(ctx, failed)
	if err != nil {
		return nil, err
	}

	var drafts []*actionplan.ActionItem
	for i := range items {
		it := &items[i]
		if !it.IsNonCompliant() || covered[it.ID] {
			continue
		}
		observation := it.Observations
		if observation == "" {
			observation = it.AIObservation
		}
		d, err := actionplan.DraftForNonCompliance(insp.OrganizationID, scope.UserID, insp.ID, it.ID, it.Description, observation)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (s *InspectionService) assignInspector(ctx context.Context, insp *inspection.Inspection, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.OrganizationID != insp.OrganizationID || user.Status != identity.UserStatusActive {
		return shared.NewDomainError("INVALID_INSPECTOR", "Inspector must be an active member of the organization")
	}
	return insp.AssignInspector(user.ID, user.Name)
}

func (s *InspectionService) load(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*inspection.Inspection, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	insp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(insp.OrganizationID); err != nil {
		return nil, err
	}
	return insp, nil
}

func (s *InspectionService) editable(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*inspection.Inspection, error) {
	insp, err := s.load(ctx, scope, id, identity.PermInspectionUpdate)
	if err != nil {
		return nil, err
	}
	if !insp.IsEditable() {
		return nil, shared.NewDomainError("INSPECTION_CLOSED", "Inspection is no longer editable")
	}
	return insp, nil
}

func (s *InspectionService) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.Transaction(ctx, fn)
}

func (s *InspectionService) publish(ctx context.Context, scope identity.AccessScope, agg shared.AggregateRoot) {
	shared.StampActor(agg, scope.UserID)
	if err := shared.PublishAndClear(ctx, s.events, agg); err != nil {
		s.logger.Warn("Failed to publish inspection events", zap.Error(err))
	}
}

func (s *InspectionService) deleteObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to delete stored object", zap.String("key", key), zap.Error(err))
		}
	}
}
