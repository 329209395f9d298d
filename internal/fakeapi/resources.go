package fakeapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freddy208/crmprospect/pkg/crm"
)

func (s *Server) mountProspects(r chi.Router) {
	mount(s, r, "/prospects", crud[crm.Prospect, crm.ProspectCreateRequest, crm.ProspectUpdateRequest]{
		name:   "prospect",
		items:  s.prospects,
		match:  matchProspect,
		create: s.createProspect,
		update: s.updateProspect,
		remove: func(_ string, prospect *crm.Prospect) {
			prospect.Status = crm.ProspectStatusDeleted
			prospect.GenericStatus = crm.GenericStatusDeleted
			touch(&prospect.Resource)
		},
	}, func(r chi.Router) {
		r.Get("/stats", s.prospectStats)
		r.Patch("/{id}/assign", s.assignProspect)
	})
}

func matchProspect(prospect *crm.Prospect, query url.Values) bool {
	deletedRequested := query.Get("status") == string(crm.ProspectStatusDeleted) ||
		query.Get("genericStatus") == string(crm.GenericStatusDeleted)

	if prospect.IsDeleted() && !deletedRequested {
		return false
	}

	return matches(query.Get("status"), string(prospect.Status)) &&
		matches(query.Get("genericStatus"), string(prospect.GenericStatus)) &&
		matches(query.Get("type"), string(prospect.Type)) &&
		matches(query.Get("country"), prospect.Country) &&
		matches(query.Get("city"), prospect.City) &&
		matches(query.Get("source"), prospect.Source) &&
		matches(query.Get("assignedToId"), deref(prospect.AssignedToID)) &&
		matches(query.Get("createdById"), prospect.CreatedByID) &&
		matches(query.Get("formationId"), deref(prospect.FormationID)) &&
		matches(query.Get("simulateurId"), deref(prospect.SimulateurID)) &&
		contains(query.Get("search"), prospect.FirstName, prospect.LastName, prospect.CompanyName, prospect.Email)
}

func (s *Server) createProspect(actor string, request *crm.ProspectCreateRequest) (*crm.Prospect, int, []string) {
	var messages []string

	if request.Email == "" {
		messages = append(messages, "email must be an email")
	}

	if request.Country == "" {
		messages = append(messages, "country should not be empty")
	}

	if request.Type == "" {
		messages = append(messages, "type must be one of the following values: PARTICULIER, ENTREPRISE")
	}

	if len(messages) > 0 {
		return nil, http.StatusBadRequest, messages
	}

	prospect := &crm.Prospect{
		Type:          request.Type,
		FirstName:     request.FirstName,
		LastName:      request.LastName,
		CompanyName:   request.CompanyName,
		Email:         request.Email,
		Phone:         request.Phone,
		Country:       request.Country,
		City:          request.City,
		Address:       request.Address,
		Source:        request.Source,
		Status:        crm.InitialProspectStatus,
		GenericStatus: crm.GenericStatusActive,
		CreatedByID:   actor,
		FormationID:   request.FormationID,
		SimulateurID:  request.SimulateurID,
	}

	if creator, ok := s.users.get(actor); ok {
		prospect.CreatedBy = creator.Summary()
	}

	if request.AssignedToID != nil {
		status, message := s.assign(prospect, *request.AssignedToID)
		if status != http.StatusOK {
			return nil, status, []string{message}
		}
	}

	stamp(&prospect.Resource)
	s.prospects.put(prospect.ID, prospect)

	return prospect, http.StatusCreated, nil
}

func (s *Server) updateProspect(prospect *crm.Prospect, request *crm.ProspectUpdateRequest) (int, string) {
	if request.AssignedToID != nil {
		status, message := s.assign(prospect, *request.AssignedToID)
		if status != http.StatusOK {
			return status, message
		}
	}

	setIf(&prospect.Type, request.Type)
	setIf(&prospect.FirstName, request.FirstName)
	setIf(&prospect.LastName, request.LastName)
	setIf(&prospect.CompanyName, request.CompanyName)
	setIf(&prospect.Email, request.Email)
	setIf(&prospect.Phone, request.Phone)
	setIf(&prospect.Country, request.Country)
	setIf(&prospect.City, request.City)
	setIf(&prospect.Address, request.Address)
	setIf(&prospect.Source, request.Source)
	setIf(&prospect.Status, request.Status)
	setIf(&prospect.GenericStatus, request.GenericStatus)

	if request.FormationID != nil {
		prospect.FormationID = optional(*request.FormationID)
	}

	if request.SimulateurID != nil {
		prospect.SimulateurID = optional(*request.SimulateurID)
	}

	touch(&prospect.Resource)

	return http.StatusOK, ""
}

// assign sets or, for an empty id, clears the assignee.
func (s *Server) assign(prospect *crm.Prospect, userID string) (int, string) {
	if userID == "" {
		prospect.AssignedToID = nil
		prospect.AssignedTo = nil

		return http.StatusOK, ""
	}

	user, ok := s.users.get(userID)
	if !ok {
		return http.StatusNotFound, "User not found"
	}

	prospect.AssignedToID = optional(user.ID)
	prospect.AssignedTo = user.Summary()

	return http.StatusOK, ""
}

func (s *Server) assignProspect(w http.ResponseWriter, r *http.Request) {
	var request crm.ProspectAssignRequest

	if !decodeBody(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prospect, ok := s.prospects.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Prospect not found")

		return
	}

	if request.AssignedToID == "" {
		writeValidation(w, []string{"assignedToId should not be empty"})

		return
	}

	status, message := s.assign(prospect, request.AssignedToID)
	if status != http.StatusOK {
		writeError(w, status, message)

		return
	}

	touch(&prospect.Resource)
	writeJSON(w, http.StatusOK, *prospect)
}

func (s *Server) prospectStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := r.URL.Query()
	stats := crm.ProspectStats{
		ByStatus:  make(map[crm.ProspectStatus]int),
		ByCountry: make(map[string]int),
	}

	for _, prospect := range s.prospects.list(nil) {
		if prospect.IsDeleted() ||
			!matches(query.Get("country"), prospect.Country) ||
			!matches(query.Get("assignedToId"), deref(prospect.AssignedToID)) {
			continue
		}

		stats.Total++
		stats.ByStatus[prospect.Status]++
		stats.ByCountry[prospect.Country]++

		if prospect.AssignedToID != nil {
			stats.Assigned++
		} else {
			stats.Unassigned++
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) mountUsers(r chi.Router) {
	mount(s, r, "/users", crud[crm.User, crm.UserCreateRequest, crm.UserUpdateRequest]{
		name:  "user",
		items: s.users,
		match: func(user *crm.User, query url.Values) bool {
			if query.Get("isActive") != "" && query.Get("isActive") != boolString(user.IsActive) {
				return false
			}

			return matches(query.Get("role"), string(user.Role)) &&
				matches(query.Get("status"), string(user.Status)) &&
				matches(query.Get("country"), user.Country) &&
				contains(query.Get("search"), user.FirstName, user.LastName, user.Email)
		},
		create: func(_ string, request *crm.UserCreateRequest) (*crm.User, int, []string) {
			if request.Email == "" || request.Password == "" {
				return nil, http.StatusBadRequest, []string{"email and password are required"}
			}

			if _, exists := s.userByEmail(request.Email); exists {
				return nil, http.StatusConflict, []string{"Email already exists"}
			}

			user := &crm.User{
				Email:     request.Email,
				FirstName: request.FirstName,
				LastName:  request.LastName,
				Phone:     request.Phone,
				Role:      request.Role,
				RoleID:    request.RoleID,
				Country:   request.Country,
				IsActive:  true,
				Status:    crm.GenericStatusActive,
			}

			stamp(&user.Resource)
			s.users.put(user.ID, user)
			s.accounts[user.ID] = &account{password: request.Password}

			return user, http.StatusCreated, nil
		},
		update: func(user *crm.User, request *crm.UserUpdateRequest) (int, string) {
			if request.Email != nil && *request.Email != user.Email {
				if _, exists := s.userByEmail(*request.Email); exists {
					return http.StatusConflict, "Email already exists"
				}
			}

			setIf(&user.Email, request.Email)
			setIf(&user.FirstName, request.FirstName)
			setIf(&user.LastName, request.LastName)
			setIf(&user.Phone, request.Phone)
			setIf(&user.Role, request.Role)
			setIf(&user.RoleID, request.RoleID)
			setIf(&user.IsActive, request.IsActive)
			setIf(&user.Status, request.Status)
			setIf(&user.Country, request.Country)
			touch(&user.Resource)

			return http.StatusOK, ""
		},
		remove: func(_ string, user *crm.User) {
			user.Status = crm.GenericStatusDeleted
			user.IsActive = false
			touch(&user.Resource)
		},
	}, func(r chi.Router) {
		r.Patch("/{id}/password", s.changePassword)
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var request crm.PasswordChangeRequest

	if !decodeBody(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := chi.URLParam(r, "id")
	actor := actorID(r)

	acct, ok := s.accounts[id]
	if _, exists := s.users.get(id); !exists || !ok {
		writeError(w, http.StatusNotFound, "User not found")

		return
	}

	if id != actor && !s.can(actor, crm.PermUsersUpdatePassword) {
		writeError(w, http.StatusForbidden, "Forbidden resource")

		return
	}

	if id == actor && request.CurrentPassword != acct.password {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")

		return
	}

	if len(request.NewPassword) < 8 {
		writeValidation(w, []string{"newPassword must be longer than or equal to 8 characters"})

		return
	}

	acct.password = request.NewPassword
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (s *Server) mountRoles(r chi.Router) {
	mount(s, r, "/roles", crud[crm.Role, crm.RoleCreateRequest, crm.RoleUpdateRequest]{
		name:  "role",
		items: s.roles,
		match: func(role *crm.Role, query url.Values) bool {
			return contains(query.Get("search"), role.Name, role.Description)
		},
		create: func(_ string, request *crm.RoleCreateRequest) (*crm.Role, int, []string) {
			if request.Name == "" {
				return nil, http.StatusBadRequest, []string{"name should not be empty"}
			}

			permissions, missing := s.resolvePermissions(request.PermissionIDs)
			if missing != "" {
				return nil, http.StatusBadRequest, []string{"Unknown permission " + missing}
			}

			role := &crm.Role{Name: request.Name, Description: request.Description, Permissions: permissions}
			stamp(&role.Resource)
			s.roles.put(role.ID, role)

			return role, http.StatusCreated, nil
		},
		update: func(role *crm.Role, request *crm.RoleUpdateRequest) (int, string) {
			if request.PermissionIDs != nil {
				permissions, missing := s.resolvePermissions(*request.PermissionIDs)
				if missing != "" {
					return http.StatusBadRequest, "Unknown permission " + missing
				}

				role.Permissions = permissions
			}

			setIf(&role.Name, request.Name)
			setIf(&role.Description, request.Description)
			touch(&role.Resource)

			return http.StatusOK, ""
		},
		remove: func(id string, _ *crm.Role) {
			s.roles.delete(id)
		},
		decorate: s.countRoleUsers,
	}, func(r chi.Router) {
		r.Put("/{id}/permissions", s.setRolePermissions)
	})
}

func (s *Server) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	var request crm.RolePermissionsRequest

	if !decodeBody(w, r, &request) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Role not found")

		return
	}

	permissions, missing := s.resolvePermissions(request.PermissionIDs)
	if missing != "" {
		writeError(w, http.StatusBadRequest, "Unknown permission "+missing)

		return
	}

	role.Permissions = permissions
	touch(&role.Resource)

	updated := *role
	s.countRoleUsers(&updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) resolvePermissions(ids []string) ([]crm.Permission, string) {
	permissions := make([]crm.Permission, 0, len(ids))

	for _, id := range ids {
		permission, ok := s.permissions.get(id)
		if !ok {
			return nil, id
		}

		permissions = append(permissions, *permission)
	}

	return permissions, ""
}

func (s *Server) countRoleUsers(role *crm.Role) {
	role.Counts.Users = len(s.users.list(func(user *crm.User) bool {
		return user.RoleID == role.ID
	}))
}

func (s *Server) mountPermissions(r chi.Router) {
	mount(s, r, "/permissions", crud[crm.Permission, crm.PermissionCreateRequest, crm.PermissionUpdateRequest]{
		name:  "permission",
		items: s.permissions,
		match: func(permission *crm.Permission, query url.Values) bool {
			return contains(query.Get("search"), permission.Name, permission.Description)
		},
		create: func(_ string, request *crm.PermissionCreateRequest) (*crm.Permission, int, []string) {
			if request.Name == "" {
				return nil, http.StatusBadRequest, []string{"name should not be empty"}
			}

			for _, existing := range s.permissions.list(nil) {
				if existing.Name == request.Name {
					return nil, http.StatusConflict, []string{"Permission already exists"}
				}
			}

			permission := &crm.Permission{ID: uuid.NewString(), Name: request.Name, Description: request.Description}
			s.permissions.put(permission.ID, permission)

			return permission, http.StatusCreated, nil
		},
		update: func(permission *crm.Permission, request *crm.PermissionUpdateRequest) (int, string) {
			setIf(&permission.Name, request.Name)
			setIf(&permission.Description, request.Description)

			return http.StatusOK, ""
		},
		remove: func(id string, _ *crm.Permission) {
			s.permissions.delete(id)
		},
	}, nil)
}

func (s *Server) mountComments(r chi.Router) {
	mount(s, r, "/comments", crud[crm.Comment, crm.CommentCreateRequest, crm.CommentUpdateRequest]{
		name:  "comment",
		items: s.comments,
		match: func(comment *crm.Comment, query url.Values) bool {
			return matches(query.Get("prospectId"), comment.ProspectID) &&
				matches(query.Get("authorId"), comment.AuthorID)
		},
		create: func(actor string, request *crm.CommentCreateRequest) (*crm.Comment, int, []string) {
			if request.Content == "" {
				return nil, http.StatusBadRequest, []string{"content should not be empty"}
			}

			prospect, ok := s.prospects.get(request.ProspectID)
			if !ok {
				return nil, http.StatusNotFound, []string{"Prospect not found"}
			}

			comment := &crm.Comment{Content: request.Content, ProspectID: prospect.ID, AuthorID: actor}
			if author, ok := s.users.get(actor); ok {
				comment.Author = author.Summary()
			}

			stamp(&comment.Resource)
			s.comments.put(comment.ID, comment)
			prospect.Counts.Comments++

			return comment, http.StatusCreated, nil
		},
		update: func(comment *crm.Comment, request *crm.CommentUpdateRequest) (int, string) {
			setIf(&comment.Content, request.Content)
			touch(&comment.Resource)

			return http.StatusOK, ""
		},
		remove: func(id string, comment *crm.Comment) {
			s.comments.delete(id)

			if prospect, ok := s.prospects.get(comment.ProspectID); ok && prospect.Counts.Comments > 0 {
				prospect.Counts.Comments--
			}
		},
	}, nil)
}

func (s *Server) mountInteractions(r chi.Router) {
	mount(s, r, "/interactions", crud[crm.Interaction, crm.InteractionCreateRequest, crm.InteractionUpdateRequest]{
		name:  "interaction",
		items: s.interactions,
		match: func(interaction *crm.Interaction, query url.Values) bool {
			return matches(query.Get("prospectId"), interaction.ProspectID) &&
				matches(query.Get("authorId"), interaction.AuthorID) &&
				matches(query.Get("channel"), string(interaction.Channel))
		},
		create: func(actor string, request *crm.InteractionCreateRequest) (*crm.Interaction, int, []string) {
			if request.Channel == "" {
				return nil, http.StatusBadRequest, []string{"channel should not be empty"}
			}

			prospect, ok := s.prospects.get(request.ProspectID)
			if !ok {
				return nil, http.StatusNotFound, []string{"Prospect not found"}
			}

			occurredAt := time.Now().UTC().Truncate(time.Millisecond)
			if request.OccurredAt != nil {
				occurredAt = *request.OccurredAt
			}

			interaction := &crm.Interaction{
				ProspectID: prospect.ID,
				AuthorID:   actor,
				Channel:    request.Channel,
				Duration:   request.Duration,
				Notes:      request.Notes,
				OccurredAt: &occurredAt,
			}

			if author, ok := s.users.get(actor); ok {
				interaction.Author = author.Summary()
			}

			stamp(&interaction.Resource)
			s.interactions.put(interaction.ID, interaction)
			prospect.Counts.Interactions++

			return interaction, http.StatusCreated, nil
		},
		update: func(interaction *crm.Interaction, request *crm.InteractionUpdateRequest) (int, string) {
			setIf(&interaction.Channel, request.Channel)
			setIf(&interaction.Duration, request.Duration)
			setIf(&interaction.Notes, request.Notes)

			if request.OccurredAt != nil {
				occurredAt := *request.OccurredAt
				interaction.OccurredAt = &occurredAt
			}

			touch(&interaction.Resource)

			return http.StatusOK, ""
		},
		remove: func(id string, interaction *crm.Interaction) {
			s.interactions.delete(id)

			if prospect, ok := s.prospects.get(interaction.ProspectID); ok && prospect.Counts.Interactions > 0 {
				prospect.Counts.Interactions--
			}
		},
	}, nil)
}

func (s *Server) mountFormations(r chi.Router) {
	mount(s, r, "/formations", crud[crm.Formation, crm.CatalogCreateRequest, crm.CatalogUpdateRequest]{
		name:  "formation",
		items: s.formations,
		match: func(formation *crm.Formation, query url.Values) bool {
			return matchCatalog(&formation.CatalogItem, query)
		},
		create: func(_ string, request *crm.CatalogCreateRequest) (*crm.Formation, int, []string) {
			item, messages := newCatalogItem(request)
			if item == nil {
				return nil, http.StatusBadRequest, messages
			}

			formation := &crm.Formation{CatalogItem: *item}
			s.formations.put(formation.ID, formation)

			return formation, http.StatusCreated, nil
		},
		update: func(formation *crm.Formation, request *crm.CatalogUpdateRequest) (int, string) {
			updateCatalogItem(&formation.CatalogItem, request)

			return http.StatusOK, ""
		},
		remove: func(_ string, formation *crm.Formation) {
			formation.Status = crm.GenericStatusDeleted
			touch(&formation.Resource)
		},
		decorate: func(formation *crm.Formation) {
			formation.Counts.Prospects = s.countProspects(func(prospect *crm.Prospect) bool {
				return deref(prospect.FormationID) == formation.ID
			})
		},
	}, nil)
}

func (s *Server) mountSimulateurs(r chi.Router) {
	mount(s, r, "/simulateurs", crud[crm.Simulateur, crm.CatalogCreateRequest, crm.CatalogUpdateRequest]{
		name:  "simulateur",
		items: s.simulateurs,
		match: func(simulateur *crm.Simulateur, query url.Values) bool {
			return matchCatalog(&simulateur.CatalogItem, query)
		},
		create: func(_ string, request *crm.CatalogCreateRequest) (*crm.Simulateur, int, []string) {
			item, messages := newCatalogItem(request)
			if item == nil {
				return nil, http.StatusBadRequest, messages
			}

			simulateur := &crm.Simulateur{CatalogItem: *item}
			s.simulateurs.put(simulateur.ID, simulateur)

			return simulateur, http.StatusCreated, nil
		},
		update: func(simulateur *crm.Simulateur, request *crm.CatalogUpdateRequest) (int, string) {
			updateCatalogItem(&simulateur.CatalogItem, request)

			return http.StatusOK, ""
		},
		remove: func(_ string, simulateur *crm.Simulateur) {
			simulateur.Status = crm.GenericStatusDeleted
			touch(&simulateur.Resource)
		},
		decorate: func(simulateur *crm.Simulateur) {
			simulateur.Counts.Prospects = s.countProspects(func(prospect *crm.Prospect) bool {
				return deref(prospect.SimulateurID) == simulateur.ID
			})
		},
	}, nil)
}

func matchCatalog(item *crm.CatalogItem, query url.Values) bool {
	if item.Status == crm.GenericStatusDeleted && query.Get("status") != string(crm.GenericStatusDeleted) {
		return false
	}

	return matches(query.Get("country"), item.Country) &&
		matches(query.Get("status"), string(item.Status)) &&
		contains(query.Get("search"), item.Name, item.Description)
}

func newCatalogItem(request *crm.CatalogCreateRequest) (*crm.CatalogItem, []string) {
	var messages []string

	if request.Name == "" {
		messages = append(messages, "name should not be empty")
	}

	if request.Country == "" {
		messages = append(messages, "country should not be empty")
	}

	if request.Price.IsNegative() {
		messages = append(messages, "price must not be less than 0")
	}

	if len(messages) > 0 {
		return nil, messages
	}

	item := &crm.CatalogItem{
		Name:        request.Name,
		Description: request.Description,
		Price:       request.Price,
		Country:     request.Country,
		Status:      request.Status,
	}

	if item.Status == "" {
		item.Status = crm.GenericStatusActive
	}

	stamp(&item.Resource)

	return item, nil
}

func updateCatalogItem(item *crm.CatalogItem, request *crm.CatalogUpdateRequest) {
	setIf(&item.Name, request.Name)
	setIf(&item.Description, request.Description)
	setIf(&item.Price, request.Price)
	setIf(&item.Country, request.Country)
	setIf(&item.Status, request.Status)
	touch(&item.Resource)
}

func (s *Server) countProspects(match func(*crm.Prospect) bool) int {
	count := 0

	for _, prospect := range s.prospects.list(nil) {
		if !prospect.IsDeleted() && match(&prospect) {
			count++
		}
	}

	return count
}

func setIf[T any](field *T, value *T) {
	if value != nil {
		*field = *value
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}

	return *value
}

func boolString(value bool) string {
	if value {
		return "true"
	}

	return "false"
}
