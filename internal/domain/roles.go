package domain

import "fmt"

type Role string

const (
	RoleCEO                   Role = "ceo"
	RoleDeputy                Role = "deputy"
	RoleDormitoryManager      Role = "dormitory_manager"
	RoleDormitoryCaretaker    Role = "dormitory_caretaker"
	RoleDormitoryAccountant   Role = "dormitory_accountant"
	RoleDormitoryProcurement  Role = "dormitory_procurement"
	RoleConsultantLeader      Role = "consultant_leader"
	RoleConsultant            Role = "consultant"
	RoleConsultantAccountant  Role = "consultant_accountant"
	RoleTestDesigner          Role = "test_designer"
	RoleEducationManager      Role = "education_manager"
	RoleTeacherLeader         Role = "teacher_leader"
	RoleTeacher               Role = "teacher"
	RoleEducationAccountant   Role = "education_accountant"
	RoleEducationSecretary    Role = "education_secretary"
	RoleEducationIT           Role = "education_it"
	RoleVirtualManager        Role = "virtual_manager"
	RoleTelegramManager       Role = "telegram_manager"
	RoleTelegramAdmin         Role = "telegram_admin"
	RoleInstagramManager      Role = "instagram_manager"
	RoleInstagramAdmin        Role = "instagram_admin"
	RoleWebsiteManager        Role = "website_manager"
	RoleWebsiteTechSupport    Role = "website_tech_support"
	RoleWebsiteContentManager Role = "website_content_manager"
	RoleWebsiteIT             Role = "website_it"
	RoleInnovationTeam        Role = "innovation_team"
)

type Department string

const (
	DepartmentDormitory  Department = "dormitory"
	DepartmentConsulting Department = "consulting"
	DepartmentEducation  Department = "education"
	DepartmentVirtual    Department = "virtual"
	DepartmentInnovation Department = "innovation"
)

var allRoles = map[Role]struct{}{
	RoleCEO: {}, RoleDeputy: {},
	RoleDormitoryManager: {}, RoleDormitoryCaretaker: {}, RoleDormitoryAccountant: {}, RoleDormitoryProcurement: {},
	RoleConsultantLeader: {}, RoleConsultant: {}, RoleConsultantAccountant: {}, RoleTestDesigner: {},
	RoleEducationManager: {}, RoleTeacherLeader: {}, RoleTeacher: {}, RoleEducationAccountant: {},
	RoleEducationSecretary: {}, RoleEducationIT: {},
	RoleVirtualManager: {}, RoleTelegramManager: {}, RoleTelegramAdmin: {},
	RoleInstagramManager: {}, RoleInstagramAdmin: {},
	RoleWebsiteManager: {}, RoleWebsiteTechSupport: {}, RoleWebsiteContentManager: {}, RoleWebsiteIT: {},
	RoleInnovationTeam: {},
}

func (r Role) Valid() bool {
	_, ok := allRoles[r]
	return ok
}

// Hierarchy is the immutable supervision graph of the organization.
// It is validated once at construction and is safe for concurrent reads.
type Hierarchy struct {
	subordinates map[Role][]Role
	parent       map[Role]Role
	approvers    map[Role]struct{}
}

// NewHierarchy validates the supervision edges: every role must belong to the
// closed enum, have at most one supervisor, and the graph must be cycle-free.
// Invalid charts fail here, never at query time.
func NewHierarchy(subordinates map[Role][]Role, approvers []Role) (*Hierarchy, error) {
	parent := make(map[Role]Role)
	for sup, subs := range subordinates {
		if !sup.Valid() {
			return nil, fmt.Errorf("hierarchy: unknown role %q", sup)
		}
		for _, sub := range subs {
			if !sub.Valid() {
				return nil, fmt.Errorf("hierarchy: unknown role %q", sub)
			}
			if existing, ok := parent[sub]; ok && existing != sup {
				return nil, fmt.Errorf("hierarchy: role %q has two supervisors (%q and %q)", sub, existing, sup)
			}
			parent[sub] = sup
		}
	}

	for role := range parent {
		seen := map[Role]struct{}{role: {}}
		for cur, ok := parent[role]; ok; cur, ok = parent[cur] {
			if _, dup := seen[cur]; dup {
				return nil, fmt.Errorf("hierarchy: cycle through role %q", cur)
			}
			seen[cur] = struct{}{}
		}
	}

	approverSet := make(map[Role]struct{}, len(approvers))
	for _, r := range approvers {
		if !r.Valid() {
			return nil, fmt.Errorf("hierarchy: unknown approver role %q", r)
		}
		approverSet[r] = struct{}{}
	}

	subs := make(map[Role][]Role, len(subordinates))
	for sup, list := range subordinates {
		subs[sup] = append([]Role(nil), list...)
	}

	return &Hierarchy{subordinates: subs, parent: parent, approvers: approverSet}, nil
}

// CanApproveTasks reports whether the role belongs to the approval-capable set.
func (h *Hierarchy) CanApproveTasks(r Role) bool {
	_, ok := h.approvers[r]
	return ok
}

// RequiresApproval reports whether tasks created by the role need supervisor
// sign-off before entering the normal flow.
func (h *Hierarchy) RequiresApproval(r Role) bool {
	return !h.CanApproveTasks(r)
}

// CanApprove reports whether approver may approve subject's tasks: approver
// must be approval-capable and subject must be a transitive subordinate.
func (h *Hierarchy) CanApprove(approver, subject Role) bool {
	if !h.CanApproveTasks(approver) {
		return false
	}
	for cur, ok := h.parent[subject]; ok; cur, ok = h.parent[cur] {
		if cur == approver {
			return true
		}
	}
	return false
}

// SupervisorsOf returns the supervision chain from the role's direct
// supervisor up to the root, in order.
func (h *Hierarchy) SupervisorsOf(r Role) []Role {
	var chain []Role
	for cur, ok := h.parent[r]; ok; cur, ok = h.parent[cur] {
		chain = append(chain, cur)
	}
	return chain
}

// Subordinates returns the direct subordinate roles of a supervisor.
func (h *Hierarchy) Subordinates(r Role) []Role {
	return append([]Role(nil), h.subordinates[r]...)
}

// DefaultHierarchy is the organization chart. The adjacency is constant, so a
// construction error here is a programming mistake and panics at startup.
func DefaultHierarchy() *Hierarchy {
	h, err := NewHierarchy(map[Role][]Role{
		RoleCEO:    {RoleDeputy, RoleInnovationTeam},
		RoleDeputy: {RoleDormitoryManager, RoleConsultantLeader, RoleEducationManager, RoleVirtualManager},
		RoleDormitoryManager: {
			RoleDormitoryCaretaker,
			RoleDormitoryAccountant,
			RoleDormitoryProcurement,
		},
		RoleConsultantLeader: {
			RoleConsultant,
			RoleConsultantAccountant,
			RoleTestDesigner,
		},
		RoleEducationManager: {
			RoleTeacherLeader,
			RoleEducationAccountant,
			RoleEducationSecretary,
			RoleEducationIT,
		},
		RoleTeacherLeader:  {RoleTeacher},
		RoleVirtualManager: {RoleTelegramManager, RoleInstagramManager, RoleWebsiteManager},
		RoleTelegramManager: {RoleTelegramAdmin},
		RoleInstagramManager: {RoleInstagramAdmin},
		RoleWebsiteManager: {
			RoleWebsiteTechSupport,
			RoleWebsiteContentManager,
			RoleWebsiteIT,
		},
	}, []Role{
		RoleCEO,
		RoleDeputy,
		RoleDormitoryManager,
		RoleConsultantLeader,
		RoleEducationManager,
		RoleTeacherLeader,
		RoleVirtualManager,
		RoleWebsiteManager,
	})
	if err != nil {
		panic("default hierarchy: " + err.Error())
	}
	return h
}
