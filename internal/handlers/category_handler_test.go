package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tally/internal/categorise"
	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/services"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn         func(userID string, in services.CategoryInput) (*models.Category, error)
	getCategoriesFn          func(userID string) ([]models.Category, error)
	getCategoryByIDFn        func(userID, categoryID string) (*models.Category, error)
	updateCategoryFn         func(userID, categoryID string, in services.CategoryInput) (*models.Category, error)
	deleteCategoryFn         func(userID, categoryID string) error
	categoriseTransactionFn  func(userID, transactionID string) (*categorise.Result, error)
	bulkCategoriseFn         func(userID string, ids []string) (map[string]categorise.Result, error)
	setTransactionCategoryFn func(userID, transactionID string, categoryID models.Optional[string]) (*models.Transaction, error)
	addMerchantRuleFn        func(userID, pattern, categoryID string) (*models.MerchantCategoryRule, error)
	getMerchantRulesFn       func(userID string) ([]models.MerchantCategoryRule, error)
	deleteMerchantRuleFn     func(userID, ruleID string) error
}

func (m *mockCategoryService) CreateCategory(userID string, in services.CategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, in)
	}
	return &models.Category{Base: models.Base{ID: testCategoryID}, Name: in.Name}, nil
}

func (m *mockCategoryService) GetCategories(userID string) ([]models.Category, error) {
	if m.getCategoriesFn != nil {
		return m.getCategoriesFn(userID)
	}
	return []models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID string, in services.CategoryInput) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, in)
	}
	return &models.Category{Base: models.Base{ID: categoryID}}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID)
	}
	return nil
}

func (m *mockCategoryService) CategoriseTransaction(userID, transactionID string) (*categorise.Result, error) {
	if m.categoriseTransactionFn != nil {
		return m.categoriseTransactionFn(userID, transactionID)
	}
	return &categorise.Result{}, nil
}

func (m *mockCategoryService) BulkCategorise(userID string, ids []string) (map[string]categorise.Result, error) {
	if m.bulkCategoriseFn != nil {
		return m.bulkCategoriseFn(userID, ids)
	}
	return map[string]categorise.Result{}, nil
}

func (m *mockCategoryService) SetTransactionCategory(userID, transactionID string, categoryID models.Optional[string]) (*models.Transaction, error) {
	if m.setTransactionCategoryFn != nil {
		return m.setTransactionCategoryFn(userID, transactionID, categoryID)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}, CategoryID: categoryID}, nil
}

func (m *mockCategoryService) AddMerchantRule(userID, pattern, categoryID string) (*models.MerchantCategoryRule, error) {
	if m.addMerchantRuleFn != nil {
		return m.addMerchantRuleFn(userID, pattern, categoryID)
	}
	return &models.MerchantCategoryRule{Base: models.Base{ID: testRuleID}, MerchantPattern: pattern, CategoryID: categoryID, Priority: 1}, nil
}

func (m *mockCategoryService) GetMerchantRules(userID string) ([]models.MerchantCategoryRule, error) {
	if m.getMerchantRulesFn != nil {
		return m.getMerchantRulesFn(userID)
	}
	return []models.MerchantCategoryRule{}, nil
}

func (m *mockCategoryService) DeleteMerchantRule(userID, ruleID string) error {
	if m.deleteMerchantRuleFn != nil {
		return m.deleteMerchantRuleFn(userID, ruleID)
	}
	return nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/categories", handler.CreateCategory)
	auth.GET("/categories", handler.GetCategories)
	auth.GET("/categories/:id", handler.GetCategoryByID)
	auth.PUT("/categories/:id", handler.UpdateCategory)
	auth.DELETE("/categories/:id", handler.DeleteCategory)
	auth.POST("/rules", handler.AddMerchantRule)
	auth.GET("/rules", handler.GetMerchantRules)
	auth.DELETE("/rules/:id", handler.DeleteMerchantRule)
	auth.POST("/transactions/categorise", handler.BulkCategorise)
	auth.GET("/transactions/:id/category", handler.CategoriseTransaction)
	auth.PUT("/transactions/:id/category", handler.SetTransactionCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.CategoryInput
		svc := &mockCategoryService{
			createCategoryFn: func(_ string, in services.CategoryInput) (*models.Category, error) {
				got = in
				return &models.Category{Base: models.Base{ID: testCategoryID}, Name: in.Name, Colour: in.Colour, MonthlyLimit: in.MonthlyLimit}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit))

		rec := doRequest(r, "POST", "/categories", `{"name":"Streaming","colour":"#ff0000","monthly_limit":"30.00"}`)

		assertStatus(t, rec, http.StatusCreated)
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "CREATE_CATEGORY" {
			t.Errorf("expected CREATE_CATEGORY audit, got %v", actions)
		}
		if limit, ok := got.MonthlyLimit.Get(); !ok || !limit.Equal(decimal.NewFromInt(30)) {
			t.Errorf("expected limit 30, got %v", got.MonthlyLimit)
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["colour"] != "#ff0000" {
			t.Errorf("expected colour, got %v", cat["colour"])
		}
	})

	t.Run("omitted limit stays empty", func(t *testing.T) {
		var got services.CategoryInput
		svc := &mockCategoryService{
			createCategoryFn: func(_ string, in services.CategoryInput) (*models.Category, error) {
				got = in
				return &models.Category{Name: in.Name}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"name":"Food"}`)

		assertStatus(t, rec, http.StatusCreated)
		if got.MonthlyLimit.IsSome() || got.Colour.IsSome() {
			t.Errorf("expected empty optionals, got %+v", got)
		}
	})

	t.Run("returns 400 on bad colour", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"name":"Food","colour":"blue"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns service validation errors", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(string, services.CategoryInput) (*models.Category, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name already exists")
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"name":"Food"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("returns 200 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, audit))

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		assertStatus(t, rec, http.StatusOK)
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "DELETE_CATEGORY" {
			t.Errorf("expected DELETE_CATEGORY audit, got %v", actions)
		}
	})

	t.Run("returns 409 when rules reference it", func(t *testing.T) {
		svc := &mockCategoryService{
			deleteCategoryFn: func(string, string) error { return apperrors.ErrCategoryInUse },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_IN_USE")
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	var gotID string
	svc := &mockCategoryService{
		updateCategoryFn: func(_, id string, in services.CategoryInput) (*models.Category, error) {
			gotID = id
			return &models.Category{Base: models.Base{ID: id}, Name: in.Name}, nil
		},
	}
	audit := &mockAuditService{}
	r := setupCategoryRouter(NewCategoryHandler(svc, audit))

	rec := doRequest(r, "PUT", "/categories/"+testCategoryID, `{"name":"Subscriptions"}`)

	assertStatus(t, rec, http.StatusOK)
	if gotID != testCategoryID {
		t.Errorf("expected id %s, got %s", testCategoryID, gotID)
	}
	if actions := audit.actions(); len(actions) != 1 || actions[0] != "UPDATE_CATEGORY" {
		t.Errorf("expected UPDATE_CATEGORY audit, got %v", actions)
	}
}

func TestCategoryHandler_Rules(t *testing.T) {
	t.Run("add returns 201 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, audit))

		rec := doRequest(r, "POST", "/rules", `{"merchant_pattern":"tesco","category_id":"`+testCategoryID+`"}`)

		assertStatus(t, rec, http.StatusCreated)
		rule := parseJSON(t, rec)["rule"].(map[string]interface{})
		if rule["merchant_pattern"] != "tesco" || rule["priority"] != float64(1) {
			t.Errorf("unexpected rule %v", rule)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "CREATE_RULE" {
			t.Errorf("expected CREATE_RULE audit, got %v", actions)
		}
	})

	t.Run("add returns 400 without category", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/rules", `{"merchant_pattern":"tesco"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("delete returns 404 for unknown rule", func(t *testing.T) {
		svc := &mockCategoryService{
			deleteMerchantRuleFn: func(string, string) error { return apperrors.ErrRuleNotFound },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/rules/"+testRuleID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "RULE_NOT_FOUND")
	})
}

func TestCategoryHandler_Categorise(t *testing.T) {
	t.Run("resolves a single transaction", func(t *testing.T) {
		svc := &mockCategoryService{
			categoriseTransactionFn: func(_, id string) (*categorise.Result, error) {
				return &categorise.Result{
					Category: models.Category{Base: models.Base{ID: testCategoryID}, Name: "Groceries"},
					Source:   categorise.SourceRule,
					RuleID:   testRuleID,
				}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions/"+testTransactionID+"/category", "")

		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if result["source"] != "rule" || result["rule_id"] != testRuleID {
			t.Errorf("unexpected result %v", result)
		}
	})

	t.Run("bulk rejects non-uuid ids", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions/categorise", `{"transaction_ids":["1","2"]}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("bulk returns results keyed by id", func(t *testing.T) {
		svc := &mockCategoryService{
			bulkCategoriseFn: func(_ string, ids []string) (map[string]categorise.Result, error) {
				out := map[string]categorise.Result{}
				for _, id := range ids {
					out[id] = categorise.Result{Source: categorise.SourceFallback}
				}
				return out, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions/categorise", `{"transaction_ids":["`+testTransactionID+`"]}`)

		assertStatus(t, rec, http.StatusOK)
		cats := parseJSON(t, rec)["categories"].(map[string]interface{})
		if _, ok := cats[testTransactionID]; !ok {
			t.Errorf("expected result for %s, got %v", testTransactionID, cats)
		}
	})

	t.Run("override sets and audits", func(t *testing.T) {
		var got models.Optional[string]
		svc := &mockCategoryService{
			setTransactionCategoryFn: func(_, id string, categoryID models.Optional[string]) (*models.Transaction, error) {
				got = categoryID
				return &models.Transaction{Base: models.Base{ID: id}, CategoryID: categoryID}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit))

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID+"/category", `{"category_id":"`+testCategoryID+`"}`)

		assertStatus(t, rec, http.StatusOK)
		if id, _ := got.Get(); id != testCategoryID {
			t.Errorf("expected override %s, got %v", testCategoryID, got)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "SET_CATEGORY" {
			t.Errorf("expected SET_CATEGORY audit, got %v", actions)
		}
	})

	t.Run("override with null clears", func(t *testing.T) {
		got := models.Some("sentinel")
		svc := &mockCategoryService{
			setTransactionCategoryFn: func(_, id string, categoryID models.Optional[string]) (*models.Transaction, error) {
				got = categoryID
				return &models.Transaction{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID+"/category", `{"category_id":null}`)

		assertStatus(t, rec, http.StatusOK)
		if got.IsSome() {
			t.Errorf("expected cleared override, got %v", got)
		}
	})

	t.Run("override returns 404 for unknown category", func(t *testing.T) {
		svc := &mockCategoryService{
			setTransactionCategoryFn: func(string, string, models.Optional[string]) (*models.Transaction, error) {
				return nil, apperrors.ErrCategoryNotFound
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID+"/category", `{"category_id":"`+testCategoryID+`"}`)

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}
