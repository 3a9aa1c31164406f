package acl

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options configures a Store.
type Options struct {
	// Strict rejects assignments of unknown roles and roles referencing unknown permissions.
	// When false, both succeed structurally and simply never grant anything.
	Strict bool

	// AuditLogSize and PermissionCheckSize cap the two trails. Zero means the default.
	AuditLogSize        int
	PermissionCheckSize int

	// Hierarchy replaces DefaultHierarchy when non-nil.
	Hierarchy Hierarchy

	// Persister, when set, receives every mutation before it is applied.
	Persister Persister

	// Metrics may be nil.
	Metrics *Metrics

	// Clock and NewID are test seams. Defaults: time.Now and uuid.NewString.
	Clock func() time.Time
	NewID func() string
}

// Store holds the role catalog, the hierarchy, role assignments and the audit trails.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	roles       map[RoleID]Role
	roleOrder   []RoleID
	hierarchy   Hierarchy
	assignments map[string][]Assignment
	audit       *boundedLog[AuditLogEntry]
	checks      *boundedLog[PermissionCheck]

	strict    bool
	persister Persister
	metrics   *Metrics
	now       func() time.Time
	newID     func() string
}

// NewStore creates a store seeded with the built-in roles.
func NewStore(opts Options) (*Store, error) {
	if opts.AuditLogSize <= 0 {
		opts.AuditLogSize = DefaultAuditLogSize
	}

	if opts.PermissionCheckSize <= 0 {
		opts.PermissionCheckSize = DefaultPermissionCheckSize
	}

	if opts.Hierarchy == nil {
		opts.Hierarchy = DefaultHierarchy()
	}

	if err := opts.Hierarchy.Validate(); err != nil {
		return nil, err
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	s := &Store{
		roles:       make(map[RoleID]Role),
		hierarchy:   opts.Hierarchy.clone(),
		assignments: make(map[string][]Assignment),
		audit:       newBoundedLog[AuditLogEntry](opts.AuditLogSize),
		checks:      newBoundedLog[PermissionCheck](opts.PermissionCheckSize),
		strict:      opts.Strict,
		persister:   opts.Persister,
		metrics:     opts.Metrics,
		now:         opts.Clock,
		newID:       opts.NewID,
	}

	for _, r := range BuiltinRoles() {
		r.IsSystem = true
		s.putRole(r)
	}

	return s, nil
}

// Restore loads persisted state. Roles are merged over the catalog, assignments and trails
// replace the current contents. Restore does not call the persister.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range snap.Roles {
		if existing, ok := s.roles[r.ID]; ok && existing.IsSystem {
			r.IsSystem = true
		}

		s.putRole(r.clone())
	}

	s.assignments = make(map[string][]Assignment)
	for _, a := range snap.Assignments {
		if _, ok := s.roles[a.Role]; !ok {
			log.Warn().Str("assignment_id", a.ID).Str("role", string(a.Role)).
				Msg("restored assignment references an unknown role")
		}

		s.assignments[a.UserID] = append(s.assignments[a.UserID], a)
	}

	s.audit.replace(snap.AuditLogs)
	s.checks.replace(snap.PermissionChecks)
}

func (s *Store) putRole(r Role) {
	if _, ok := s.roles[r.ID]; !ok {
		s.roleOrder = append(s.roleOrder, r.ID)
	}

	r.Permissions = dedupePermissions(r.Permissions)
	s.roles[r.ID] = r
}

func (s *Store) newAuditEntry(action AuditAction, actor, target string, details map[string]string) AuditLogEntry {
	return AuditLogEntry{
		ID:           s.newID(),
		Action:       action,
		Actor:        actor,
		TargetUserID: target,
		Timestamp:    s.now(),
		Details:      details,
	}
}

// pushAudit appends an already persisted entry. Caller holds the write lock.
func (s *Store) pushAudit(e AuditLogEntry) {
	s.audit.push(e)
	s.metrics.observeAudit(e.Action)
}

func (s *Store) checkPermissions(perms []Permission) error {
	if !s.strict {
		return nil
	}

	for _, p := range perms {
		if !IsKnownPermission(p) {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, p)
		}
	}

	return nil
}

// Role returns a copy of the role with the given id.
func (s *Store) Role(id RoleID) (Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[id]
	if !ok {
		return Role{}, false
	}

	return r.clone(), true
}

// ListRoles returns the role catalog in insertion order.
func (s *Store) ListRoles() []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Role, 0, len(s.roleOrder))
	for _, id := range s.roleOrder {
		if r, ok := s.roles[id]; ok {
			out = append(out, r.clone())
		}
	}

	return out
}

// CreateRole adds a custom role.
func (s *Store) CreateRole(actor string, id RoleID, spec RoleSpec) (Role, AuditLogEntry, error) {
	if id == "" {
		return Role{}, AuditLogEntry{}, ErrRoleIDEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[id]; ok {
		return Role{}, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrRoleExists, id)
	}

	if err := s.checkPermissions(spec.Permissions); err != nil {
		return Role{}, AuditLogEntry{}, err
	}

	now := s.now()
	role := Role{
		ID:          id,
		Name:        spec.Name,
		Description: spec.Description,
		Permissions: dedupePermissions(spec.Permissions),
		Level:       spec.Level,
		Inherits:    append([]RoleID(nil), spec.Inherits...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	entry := s.newAuditEntry(ActionRoleCreated, actor, "", map[string]string{"role": string(id)})

	if s.persister != nil {
		if err := s.persister.SaveRole(role, &entry); err != nil {
			return Role{}, AuditLogEntry{}, fmt.Errorf("failed to persist role %s: %w", id, err)
		}
	}

	s.putRole(role)
	s.pushAudit(entry)

	return role.clone(), entry, nil
}

// UpdateRole changes the fields set in upd. An unknown id leaves the catalog untouched and
// returns ErrRoleNotFound.
func (s *Store) UpdateRole(actor string, id RoleID, upd RoleUpdate) (Role, AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.roles[id]
	if !ok {
		return Role{}, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrRoleNotFound, id)
	}

	if upd.Permissions != nil {
		if err := s.checkPermissions(*upd.Permissions); err != nil {
			return Role{}, AuditLogEntry{}, err
		}
	}

	role := upd.apply(current.clone())
	role.UpdatedAt = s.now()

	entry := s.newAuditEntry(ActionRoleUpdated, actor, "", map[string]string{"role": string(id)})

	if s.persister != nil {
		if err := s.persister.SaveRole(role, &entry); err != nil {
			return Role{}, AuditLogEntry{}, fmt.Errorf("failed to persist role %s: %w", id, err)
		}
	}

	s.putRole(role)
	s.pushAudit(entry)

	return role.clone(), entry, nil
}

// DeleteRole removes a custom role. Assignments referencing it are kept and stop granting
// anything.
func (s *Store) DeleteRole(actor string, id RoleID) (AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[id]
	if !ok {
		return AuditLogEntry{}, fmt.Errorf("%w: %s", ErrRoleNotFound, id)
	}

	if role.IsSystem {
		return AuditLogEntry{}, fmt.Errorf("%w: %s", ErrSystemRole, id)
	}

	entry := s.newAuditEntry(ActionRoleDeleted, actor, "", map[string]string{"role": string(id)})

	if s.persister != nil {
		if err := s.persister.DeleteRole(id, &entry); err != nil {
			return AuditLogEntry{}, fmt.Errorf("failed to delete role %s: %w", id, err)
		}
	}

	delete(s.roles, id)

	for i, rid := range s.roleOrder {
		if rid == id {
			s.roleOrder = append(s.roleOrder[:i], s.roleOrder[i+1:]...)
			break
		}
	}

	s.pushAudit(entry)

	return entry, nil
}

// Hierarchy returns a copy of the role hierarchy.
func (s *Store) Hierarchy() Hierarchy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hierarchy.clone()
}

// SetHierarchy replaces the role hierarchy after checking it is acyclic.
func (s *Store) SetHierarchy(h Hierarchy) error {
	if err := h.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hierarchy = h.clone()

	return nil
}

// InheritedRoles returns the roles that transitively inherit from id. The result is
// informational: the resolver never expands it.
func (s *Store) InheritedRoles(id RoleID) ([]RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hierarchy.Inheritors(id)
}

// AssignRole grants role to userID.
func (s *Store) AssignRole(userID string, role RoleID, assignedBy string, opts ...AssignOption) (Assignment, AuditLogEntry, error) {
	if userID == "" {
		return Assignment{}, AuditLogEntry{}, ErrUserIDEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[role]; !ok && s.strict {
		return Assignment{}, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrRoleNotFound, role)
	}

	a := Assignment{
		ID:         s.newID(),
		UserID:     userID,
		Role:       role,
		IsActive:   true,
		AssignedBy: assignedBy,
		AssignedAt: s.now(),
	}

	for _, opt := range opts {
		opt(&a)
	}

	details := map[string]string{"role": string(role), "assignmentId": a.ID}
	entry := s.newAuditEntry(ActionRoleAssigned, assignedBy, userID, details)

	if s.persister != nil {
		if err := s.persister.SaveAssignment(a, &entry); err != nil {
			return Assignment{}, AuditLogEntry{}, fmt.Errorf("failed to persist assignment: %w", err)
		}
	}

	s.assignments[userID] = append(s.assignments[userID], a)
	s.pushAudit(entry)

	return a, entry, nil
}

// RevokeRole deactivates the assignment with the given id. The assignment is kept, marked
// inactive with revocation details. An inactive assignment is returned unchanged with
// ErrAssignmentRevoked.
func (s *Store) RevokeRole(userID, assignmentID, revokedBy, reason string) (Assignment, AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findAssignment(userID, assignmentID)
	if idx < 0 {
		return Assignment{}, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrAssignmentNotFound, assignmentID)
	}

	a := s.assignments[userID][idx]
	if !a.IsActive {
		return a, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrAssignmentRevoked, assignmentID)
	}

	now := s.now()
	a.IsActive = false
	a.RevokedBy = revokedBy
	a.RevokedAt = &now
	a.RevokeReason = reason

	details := map[string]string{"roleId": assignmentID, "role": string(a.Role)}
	if reason != "" {
		details["reason"] = reason
	}

	entry := s.newAuditEntry(ActionRoleRevoked, revokedBy, userID, details)

	if s.persister != nil {
		if err := s.persister.SaveAssignment(a, &entry); err != nil {
			return Assignment{}, AuditLogEntry{}, fmt.Errorf("failed to persist revocation: %w", err)
		}
	}

	s.assignments[userID][idx] = a
	s.pushAudit(entry)

	return a, entry, nil
}

// UpdateUserRole changes the fields set in upd on one of the user's assignments.
func (s *Store) UpdateUserRole(actor, userID, assignmentID string, upd AssignmentUpdate) (Assignment, AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findAssignment(userID, assignmentID)
	if idx < 0 {
		return Assignment{}, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrAssignmentNotFound, assignmentID)
	}

	if upd.Role != nil && s.strict {
		if _, ok := s.roles[*upd.Role]; !ok {
			return Assignment{}, AuditLogEntry{}, fmt.Errorf("%w: %s", ErrRoleNotFound, *upd.Role)
		}
	}

	a := upd.apply(s.assignments[userID][idx])

	details := map[string]string{"assignmentId": assignmentID, "role": string(a.Role)}
	entry := s.newAuditEntry(ActionAssignmentUpdated, actor, userID, details)

	if s.persister != nil {
		if err := s.persister.SaveAssignment(a, &entry); err != nil {
			return Assignment{}, AuditLogEntry{}, fmt.Errorf("failed to persist assignment: %w", err)
		}
	}

	s.assignments[userID][idx] = a
	s.pushAudit(entry)

	return a, entry, nil
}

// AddUserRole appends an assignment produced elsewhere, e.g. returned by a remote service.
func (s *Store) AddUserRole(a Assignment) error {
	if a.UserID == "" {
		return ErrUserIDEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.SaveAssignment(a, nil); err != nil {
			return fmt.Errorf("failed to persist assignment: %w", err)
		}
	}

	s.assignments[a.UserID] = append(s.assignments[a.UserID], a)

	return nil
}

// ReplaceAssignment overwrites the stored assignment with the same user and id, e.g. with the
// revoked state reported by a remote service.
func (s *Store) ReplaceAssignment(a Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findAssignment(a.UserID, a.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrAssignmentNotFound, a.ID)
	}

	if s.persister != nil {
		if err := s.persister.SaveAssignment(a, nil); err != nil {
			return fmt.Errorf("failed to persist assignment: %w", err)
		}
	}

	s.assignments[a.UserID][idx] = a

	return nil
}

// UserAssignments returns copies of every assignment held by userID, revoked ones included.
func (s *Store) UserAssignments(userID string) []Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Assignment(nil), s.assignments[userID]...)
}

func (s *Store) findAssignment(userID, assignmentID string) int {
	for i := range s.assignments[userID] {
		if s.assignments[userID][i].ID == assignmentID {
			return i
		}
	}

	return -1
}

// LogAuditEvent prepends an entry to the audit trail, evicting the oldest entry when full.
func (s *Store) LogAuditEvent(entry AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.AppendAuditLog(entry); err != nil {
			return fmt.Errorf("failed to persist audit log: %w", err)
		}
	}

	s.pushAudit(entry)

	return nil
}

// AddPermissionCheck prepends a record to the permission check trail, evicting the oldest
// record when full.
func (s *Store) AddPermissionCheck(c PermissionCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addPermissionCheck(c)
}

func (s *Store) addPermissionCheck(c PermissionCheck) error {
	if s.persister != nil {
		if err := s.persister.AppendPermissionCheck(c); err != nil {
			return fmt.Errorf("failed to persist permission check: %w", err)
		}
	}

	s.checks.push(c)
	s.metrics.observeCheck(c.Result)

	return nil
}

// AuditLogs returns matching audit entries, newest first, paginated by limit and offset.
// A non-positive limit returns everything from offset on.
func (s *Store) AuditLogs(filter AuditFilter, limit, offset int) (logs []AuditLogEntry, total int, hasMore bool) {
	s.mu.RLock()
	all := s.audit.items()
	s.mu.RUnlock()

	matched := make([]AuditLogEntry, 0, len(all))
	for i := range all {
		if filter.match(&all[i]) {
			matched = append(matched, all[i])
		}
	}

	total = len(matched)

	if offset < 0 {
		offset = 0
	}

	if offset >= total {
		return []AuditLogEntry{}, total, false
	}

	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}

	return matched[offset:end], total, end < total
}

// ReplaceAuditLogs discards the audit trail and loads entries given newest first.
func (s *Store) ReplaceAuditLogs(newestFirst []AuditLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit.replace(newestFirst)
}

// AuditLogLen returns the number of entries in the audit trail.
func (s *Store) AuditLogLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.audit.len()
}

// PermissionChecks returns the recorded permission checks, newest first.
func (s *Store) PermissionChecks() []PermissionCheck {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.checks.items()
}
