package actions_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/omnibot/pkg/actions"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Invoke_Success(t *testing.T) {
	var gotBody, gotAuth, gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"E-mail atualizado"}`))
	}))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL + "/", Token: "secret"})
	action := domain.WriteAction{
		ID:                  "wa-1",
		Name:                "update_email",
		HTTPMethod:          "put",
		Endpoint:            "/clientes/{{cpf}}/email",
		RequestBodyTemplate: `{"email":"{{email}}"}`,
		Active:              true,
	}

	resp, err := client.Invoke(context.Background(), action, map[string]string{"cpf": "11111111111", "email": "a@b.co"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "E-mail atualizado", resp.Message)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/clientes/11111111111/email", gotPath)
	assert.Equal(t, `{"email":"a@b.co"}`, gotBody)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestClient_Invoke_DefaultBodyAndFormatter(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"faturas":[{"vencimento":"10/11","valor":"99.90","status":"em aberto"}]}`))
	}))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL})
	action := domain.WriteAction{Name: "buscar_fatura_cpf", Endpoint: "/faturas/buscar", Active: true}

	resp, err := client.Invoke(context.Background(), action, map[string]string{"cpf": "11111111111"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cpf": "11111111111"}, got)
	assert.Contains(t, resp.Message, "Valor: R$ 99.90")
}

func TestClient_Invoke_GetSendsNoBody(t *testing.T) {
	var length int64 = -2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		length = r.ContentLength
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL})
	_, err := client.Invoke(context.Background(), domain.WriteAction{Name: "q", HTTPMethod: "GET", Endpoint: "/status"}, map[string]string{"x": "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)
}

func TestClient_Invoke_HTTPErrors(t *testing.T) {
	tests := []struct {
		status  int
		code    string
		message string
	}{
		{http.StatusUnauthorized, actions.CodeUnauthorized, "Erro de autenticação com sistema externo"},
		{http.StatusNotFound, actions.CodeNotFound, "Informação não encontrada no sistema"},
		{http.StatusInternalServerError, actions.CodeExternal, "Erro ao consultar sistema externo"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := actions.New(actions.Config{BaseURL: srv.URL})
			resp, err := client.Invoke(context.Background(), domain.WriteAction{Name: "a", Endpoint: "/x"}, nil)

			var actionErr *domain.ActionError
			require.ErrorAs(t, err, &actionErr)
			assert.Equal(t, tt.status, actionErr.Status)
			assert.Equal(t, tt.message, actionErr.Message)
			require.NotNil(t, resp)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error)
			assert.Equal(t, 1, calls, "client must not retry")
		})
	}
}

func TestClient_Invoke_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	resp, err := client.Invoke(context.Background(), domain.WriteAction{Name: "slow", Endpoint: "/"}, nil)

	var actionErr *domain.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, 0, actionErr.Status)
	assert.Equal(t, actions.CodeTimeout, resp.Error)
}

func TestClient_Invoke_NotConfigured(t *testing.T) {
	client := actions.New(actions.Config{})
	resp, err := client.Invoke(context.Background(), domain.WriteAction{Name: "a"}, nil)

	var actionErr *domain.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, actions.CodeNotConfigured, resp.Error)
}

func TestClient_Invoke_MissingTemplateVariable(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL})
	_, err := client.Invoke(context.Background(), domain.WriteAction{Name: "a", Endpoint: "/", RequestBodyTemplate: `{"cpf":"{{cpf}}"}`}, nil)

	var tmplErr *domain.TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, []string{"cpf"}, tmplErr.Missing)
	assert.Zero(t, calls, "no request is sent when the template cannot be rendered")
}

func TestClient_Invoke_ResponseExpr(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"protocolo":"A-42","itens":[1,2,3]}`))
	}))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL})
	action := domain.WriteAction{
		Name:         "abrir_chamado",
		Endpoint:     "/chamados",
		ResponseExpr: `"Chamado " + protocolo + " com " + string(len(itens)) + " itens."`,
	}

	resp, err := client.Invoke(context.Background(), action, nil)
	require.NoError(t, err)
	assert.Equal(t, "Chamado A-42 com 3 itens.", resp.Message)
}

func TestClient_Invoke_ResponseExprFallsBackToFormatter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pedido":{"numero":"7","status":"enviado","previsao":"amanhã"}}`))
	}))
	defer srv.Close()

	client := actions.New(actions.Config{BaseURL: srv.URL})
	action := domain.WriteAction{
		Name:         "verificar_status",
		Endpoint:     "/pedidos/status",
		ResponseExpr: `pedido.numero * 2`,
	}

	resp, err := client.Invoke(context.Background(), action, nil)
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Status: enviado")
}

func TestCompileResponseExpr(t *testing.T) {
	_, err := actions.CompileResponseExpr(`"ok: " + valor`)
	require.NoError(t, err)

	_, err = actions.CompileResponseExpr(`"open`)
	assert.Error(t, err)
}
